// Package config manages runtime settings for the qarzkitob client,
// layered as defaults -> JSON file -> command-line flags, later sources
// taking precedence.
package config

import "time"

// Config holds runtime settings for the client.
type Config struct {
	// APIBaseURL is the base URL of the remote ledger API.
	APIBaseURL string

	// DatabasePath is the sqlite file holding persisted client state.
	DatabasePath string

	// RequestTimeout bounds each remote call made by the API client.
	RequestTimeout time.Duration

	// PinCode is the short code gating sensitive screens.
	PinCode string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "qarzkitob.db"
	c.RequestTimeout = 12 * time.Second
	c.PinCode = "1234"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
