package config

import (
	"strings"
	"time"
)

// ClientConfig holds configuration for the sitectl command line client.
type ClientConfig struct {
	APIURL       string
	TimeoutMS    int
	MaxRetries   int
	RetryDelayMS int
	RetryBackoff bool
	NtfyEndpoint string
	Debug        bool
	LogLevel     string
	LogFile      string
}

// LoadClient reads client configuration from environment variables.
func LoadClient() (*ClientConfig, error) {
	loadDotenv()

	cfg := &ClientConfig{
		APIURL:       strings.TrimRight(getEnvOrDefault("SITE_API_URL", "http://localhost:3000/api"), "/"),
		TimeoutMS:    clampMin(getEnvIntOrDefault("SITE_API_TIMEOUT_MS", 30000), 100),
		MaxRetries:   clampMin(getEnvIntOrDefault("SITE_MAX_RETRIES", 3), 0),
		RetryDelayMS: clampMin(getEnvIntOrDefault("SITE_RETRY_DELAY_MS", 1000), 0),
		RetryBackoff: getEnvBoolOrDefault("SITE_RETRY_BACKOFF", true),
		NtfyEndpoint: getEnvOrDefault("SITECTL_NTFY_ENDPOINT", ""),
		Debug:        getEnvBoolOrDefault("SITECTL_DEBUG", false),
		LogLevel:     strings.ToLower(getEnvOrDefault("SITECTL_LOG_LEVEL", "info")),
		LogFile:      getEnvOrDefault("SITECTL_LOG_FILE", "logs/sitectl.log"),
	}
	return cfg, nil
}

// Timeout is the default per-attempt request timeout.
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// RetryDelay is the base delay between attempts.
func (c *ClientConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}
