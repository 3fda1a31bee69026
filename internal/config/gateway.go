package config

import (
	"fmt"
	"strings"
	"time"
)

// DefaultMediaOrigins are the absolute backend origins whose /media/ URLs
// get rewritten. They match the docker-compose deployment the backend ships
// with; override them with GATEWAY_MEDIA_ORIGINS or a rewrite rule file.
var DefaultMediaOrigins = []string{
	"http://localhost:8000",
	"http://backend:8000",
	"http://172.19.0.3:8000",
}

// GatewayConfig holds configuration for the site gateway binary.
type GatewayConfig struct {
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Two variables for the same logical backend host: one for JSON
	// forwarding, one for media streaming.
	BackendURL      string
	BackendMediaURL string

	ForwardTimeoutMS int
	MediaTimeoutMS   int

	MediaOrigins      []string
	MediaPrefix       string
	RewriteConfigPath string

	ContactAuditDir string
	CORSOrigin      string

	LogLevel string
	LogFile  string
}

// LoadGateway reads gateway configuration from environment variables and an
// optional .env file. When GATEWAY_REWRITE_CONFIG names a YAML file, its
// rules replace MediaOrigins and MediaPrefix.
func LoadGateway() (*GatewayConfig, error) {
	loadDotenv()

	cfg := &GatewayConfig{
		BindAddr:          getEnvOrDefault("GATEWAY_BIND_ADDR", "127.0.0.1:3000"),
		PortCandidates:    getEnvListOrDefault("GATEWAY_PORT_CANDIDATES", nil),
		PortAutoFallback:  getEnvBoolOrDefault("GATEWAY_PORT_AUTO_FALLBACK", false),
		BackendURL:        strings.TrimRight(getEnvOrDefault("INTERNAL_API_URL", "http://backend:8000/api"), "/"),
		BackendMediaURL:   strings.TrimRight(getEnvOrDefault("BACKEND_MEDIA_URL", "http://backend:8000/media"), "/"),
		ForwardTimeoutMS:  clampMin(getEnvIntOrDefault("GATEWAY_FORWARD_TIMEOUT_MS", 30000), 100),
		MediaTimeoutMS:    clampMin(getEnvIntOrDefault("GATEWAY_MEDIA_TIMEOUT_MS", 10000), 100),
		MediaOrigins:      getEnvListOrDefault("GATEWAY_MEDIA_ORIGINS", DefaultMediaOrigins),
		MediaPrefix:       getEnvOrDefault("GATEWAY_MEDIA_PREFIX", "/api/media/"),
		RewriteConfigPath: getEnvOrDefault("GATEWAY_REWRITE_CONFIG", ""),
		ContactAuditDir:   getEnvOrDefault("GATEWAY_CONTACT_AUDIT_DIR", "./data/contact"),
		CORSOrigin:        getEnvOrDefault("GATEWAY_CORS_ORIGIN", "*"),
		LogLevel:          strings.ToLower(getEnvOrDefault("GATEWAY_LOG_LEVEL", "info")),
		LogFile:           getEnvOrDefault("GATEWAY_LOG_FILE", "logs/gateway.log"),
	}

	if cfg.RewriteConfigPath != "" {
		rules, err := LoadRewriteRules(cfg.RewriteConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.MediaOrigins = rules.Origins
		if rules.MediaPrefix != "" {
			cfg.MediaPrefix = rules.MediaPrefix
		}
	}

	for _, origin := range cfg.MediaOrigins {
		if err := validateOrigin(origin); err != nil {
			return nil, fmt.Errorf("gateway config: media origin: %w", err)
		}
	}
	if !strings.HasPrefix(cfg.MediaPrefix, "/") || !strings.HasSuffix(cfg.MediaPrefix, "/") {
		return nil, fmt.Errorf("gateway config: media prefix %q must start and end with /", cfg.MediaPrefix)
	}
	if strings.Contains(cfg.MediaPrefix, "://") {
		return nil, fmt.Errorf("gateway config: media prefix %q must be a path, not a URL", cfg.MediaPrefix)
	}
	return cfg, nil
}

// ForwardTimeout is the per-call budget for JSON forwarding.
func (c *GatewayConfig) ForwardTimeout() time.Duration {
	return time.Duration(c.ForwardTimeoutMS) * time.Millisecond
}

// MediaTimeout is the per-call budget for media streaming.
func (c *GatewayConfig) MediaTimeout() time.Duration {
	return time.Duration(c.MediaTimeoutMS) * time.Millisecond
}
