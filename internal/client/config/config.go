package config

import "time"

// Config holds runtime settings for the timesheet CLI.
//
// Fields:
//   - BaseURL: base URL of the TSAPI endpoint.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - RequestTimeout: per-request timeout for remote calls.
//   - DatabasePath: path of the local SQLite database file.
type Config struct {
	BaseURL             string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	DatabasePath        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "tsheet.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
