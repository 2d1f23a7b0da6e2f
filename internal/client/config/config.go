package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds runtime settings for the vehiclefeed admin CLI.
//
// Fields:
//   - ServerURL: base URL of the vehiclefeed HTTP API.
//   - RequestTimeout: per-request timeout of the HTTP client.
//   - Username: prefilled login name; the password is always prompted for.
//   - ExportDir: directory the export command writes feed snapshots to.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	Username       string
	ExportDir      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 30 * time.Second
	c.Username = ""
	c.ExportDir = "exports"
}

// Validate reports settings the client cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid server url %q", c.ServerURL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.ExportDir == "" {
		errs = append(errs, errors.New("export dir must not be empty"))
	}
	return errors.Join(errs...)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags. Later sources take precedence
// over earlier ones. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
