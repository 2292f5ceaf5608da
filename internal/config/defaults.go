package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultKalshiURL     = "https://api.elections.kalshi.com/trade-api/v2"
	DefaultKalshiStatus  = "open"
	DefaultPolymarketURL = "https://gamma-api.polymarket.com"

	DefaultPollInterval = 3 * time.Second
	DefaultFetchTimeout = 2 * time.Minute

	DefaultClientTimeout  = 10 * time.Second
	DefaultMaxAttempts    = 5
	DefaultRetryBaseDelay = 1 * time.Second
	DefaultRetryMaxDelay  = 10 * time.Second

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"
)

func (c *IngestorConfig) applyDefaults() {
	// Poll defaults
	if c.Poll.Interval == 0 {
		c.Poll.Interval = DefaultPollInterval
	}
	if c.Poll.FetchTimeout == 0 {
		c.Poll.FetchTimeout = DefaultFetchTimeout
	}

	// Client defaults
	if c.Client.Timeout == 0 {
		c.Client.Timeout = DefaultClientTimeout
	}
	if c.Client.MaxAttempts == 0 {
		c.Client.MaxAttempts = DefaultMaxAttempts
	}
	if c.Client.RetryBaseDelay == 0 {
		c.Client.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.Client.RetryMaxDelay == 0 {
		c.Client.RetryMaxDelay = DefaultRetryMaxDelay
	}

	// Source defaults
	if c.Sources.Kalshi.BaseURL == "" {
		c.Sources.Kalshi.BaseURL = DefaultKalshiURL
	}
	if c.Sources.Kalshi.Status == "" {
		c.Sources.Kalshi.Status = DefaultKalshiStatus
	}
	if c.Sources.Polymarket.BaseURL == "" {
		c.Sources.Polymarket.BaseURL = DefaultPolymarketURL
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
