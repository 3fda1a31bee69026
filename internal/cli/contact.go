package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/site_gateway/internal/apiclient"
	"github.com/dgnsrekt/site_gateway/internal/forms"
)

func (a *app) contactCmd() *cobra.Command {
	var form forms.Contact
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Submit the contact form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if errs := form.Validate(); errs != nil {
				a.notifier.HandleValidationError(ctx, errs, "Contact")
				return apiclient.NewValidationError(errs)
			}
			sub, err := a.client.SubmitContact(ctx, form)
			return a.emit(ctx, "Contact", sub, err)
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "your name")
	f.StringVar(&form.Email, "email", "", "reply address")
	f.StringVar(&form.Phone, "phone", "", "phone number")
	f.StringVar(&form.Company, "company", "", "company")
	f.StringVar(&form.InquiryType, "inquiry-type", "general", "general, partnership, product, support, career or media")
	f.StringVar(&form.Subject, "subject", "", "subject line")
	f.StringVar(&form.Message, "message", "", "message body")
	return cmd
}

type healthResult struct {
	Healthy bool   `json:"healthy"`
	APIURL  string `json:"api_url"`
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the gateway answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			healthy := a.client.HealthCheck(cmd.Context())
			if err := a.emit(cmd.Context(), "", healthResult{Healthy: healthy, APIURL: a.cfg.APIURL}, nil); err != nil {
				return err
			}
			if !healthy {
				return errUnhealthy
			}
			return nil
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Probe the gateway and report connectivity changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.watch(ctx, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "probe interval")
	return cmd
}

// watch probes with a client that ignores the monitor, so a gateway marked
// offline can still be seen coming back.
func (a *app) watch(ctx context.Context, interval time.Duration) error {
	probe := apiclient.New(a.cfg.APIURL)

	id, changes := a.monitor.Subscribe()
	defer a.monitor.Unsubscribe(id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for online := range changes {
			a.notifier.HandleNetworkChange(ctx, online)
		}
	}()

	slog.Info("watching gateway", "api_url", a.cfg.APIURL, "interval", interval)
	err := a.monitor.Probe(ctx, interval, probe.HealthCheck)
	a.monitor.Unsubscribe(id)
	<-done

	if ctx.Err() != nil {
		return nil
	}
	return err
}
