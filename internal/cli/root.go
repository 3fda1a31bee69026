// Package cli implements sitectl, a command line client for the site
// gateway's content and contact endpoints.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/site_gateway/internal/apiclient"
	"github.com/dgnsrekt/site_gateway/internal/config"
	"github.com/dgnsrekt/site_gateway/internal/logging"
	"github.com/dgnsrekt/site_gateway/internal/notify"
)

// minTimeoutMS matches the floor LoadClient applies to SITE_API_TIMEOUT_MS.
const minTimeoutMS = 100

type app struct {
	out    io.Writer
	errOut io.Writer

	apiURL     string
	maxRetries int
	retryDelay time.Duration
	noBackoff  bool
	timeout    time.Duration
	logLevel   string
	logFile    string
	debug      bool

	cfg       *config.ClientConfig
	monitor   *apiclient.Monitor
	client    *apiclient.Client
	notifier  *notify.Notifier
	logCloser io.Closer
}

// Execute runs sitectl against os.Args.
func Execute() {
	if err := NewRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the sitectl command tree. Results are written to out as
// indented JSON; logs and notifications go to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "sitectl",
		Short:             "Query the site gateway",
		Long:              `sitectl reads blog, product, team and case study content through the site gateway and submits contact forms, retrying transient failures.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.teardown() },
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api-url", "", "gateway API base URL (default from SITE_API_URL)")
	flags.IntVar(&a.maxRetries, "max-retries", 0, "retries after the first attempt (default from SITE_MAX_RETRIES)")
	flags.DurationVar(&a.retryDelay, "retry-delay", 0, "base delay between attempts (default from SITE_RETRY_DELAY_MS)")
	flags.BoolVar(&a.noBackoff, "no-backoff", false, "use a flat retry delay instead of doubling it")
	flags.DurationVar(&a.timeout, "timeout", 0, "per-attempt timeout (default from SITE_API_TIMEOUT_MS)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.logFile, "log-file", "", "rotating log file; empty disables file logging")
	flags.BoolVar(&a.debug, "debug", false, "report unexpected errors as notifications")

	root.AddCommand(
		a.postsCmd(), a.postCmd(), a.featuredCmd(), a.tagsCmd(), a.relatedCmd(),
		a.productsCmd(), a.productCmd(), a.productIDCmd(),
		a.teamCmd(), a.caseStudiesCmd(),
		a.contactCmd(), a.healthCmd(), a.watchCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = a.apiURL
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries = max(a.maxRetries, 0)
	}
	if flags.Changed("retry-delay") {
		cfg.RetryDelayMS = int(a.retryDelay / time.Millisecond)
	}
	if flags.Changed("timeout") {
		cfg.TimeoutMS = max(int(a.timeout/time.Millisecond), minTimeoutMS)
	}
	if a.noBackoff {
		cfg.RetryBackoff = false
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.logFile
	}
	if flags.Changed("debug") {
		cfg.Debug = a.debug
	}
	a.cfg = cfg

	closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile, a.errOut)
	if err != nil {
		return fmt.Errorf("logger setup failed: %w", err)
	}
	a.logCloser = closer

	sinks := notify.MultiSink{notify.LogSink{}}
	if cfg.NtfyEndpoint != "" {
		sinks = append(sinks, notify.NtfySink{Endpoint: cfg.NtfyEndpoint})
	}
	a.notifier = notify.New(sinks, notify.WithDebug(cfg.Debug))

	a.monitor = apiclient.NewMonitor(true)
	a.client = apiclient.New(cfg.APIURL,
		apiclient.WithConnectivity(a.monitor),
		apiclient.WithDefaultTimeout(cfg.Timeout()),
		apiclient.WithDefaultRetry(apiclient.RetryConfig{
			MaxRetries: cfg.MaxRetries,
			Delay:      cfg.RetryDelay(),
			Backoff:    cfg.RetryBackoff,
		}),
	)
	return nil
}

func (a *app) teardown() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// emit writes v as indented JSON, or reports err through the notifier.
func (a *app) emit(ctx context.Context, label string, v any, err error) error {
	if err != nil {
		a.notifier.HandleAPIError(ctx, err, label)
		return err
	}
	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
