package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// RewriteRules is the YAML form of the media URL rewrite configuration.
type RewriteRules struct {
	MediaPrefix string   `yaml:"media_prefix,omitempty"`
	Origins     []string `yaml:"origins"`
}

// LoadRewriteRules reads and validates a rewrite rules YAML file.
func LoadRewriteRules(path string) (*RewriteRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rewrite config: %w", err)
	}
	var rules RewriteRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("rewrite config: %w", err)
	}
	if len(rules.Origins) < 1 {
		return nil, fmt.Errorf("rewrite config: at least one origin is required")
	}
	for i, origin := range rules.Origins {
		if err := validateOrigin(origin); err != nil {
			return nil, fmt.Errorf("rewrite config: origins[%d]: %w", i, err)
		}
	}
	return &rules, nil
}

// validateOrigin accepts scheme://host[:port] and nothing more.
func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin %q: %w", origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin %q must use http or https", origin)
	}
	if u.Host == "" {
		return fmt.Errorf("origin %q is missing a host", origin)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("origin %q must not carry a path, query or fragment", origin)
	}
	return nil
}
