package config

import (
	"fmt"
	"net/url"
	"time"
)

// IngestorConfig is the root configuration for an ingestor instance.
type IngestorConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Poll     PollConfig     `yaml:"poll"`
	Client   ClientConfig   `yaml:"client"`
	Sources  SourcesConfig  `yaml:"sources"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this ingestor.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// PollConfig holds orchestrator settings.
type PollConfig struct {
	Interval     time.Duration `yaml:"interval"`      // Time between ticks
	FetchTimeout time.Duration `yaml:"fetch_timeout"` // Budget for one adapter fetch, retries included
}

// ClientConfig holds the HTTP client and retry policy shared by all adapters.
type ClientConfig struct {
	Timeout        time.Duration `yaml:"timeout"`          // Per-request timeout
	MaxAttempts    int           `yaml:"max_attempts"`     // Total attempts, first try included
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"` // First backoff delay
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`  // Backoff cap
}

// SourcesConfig holds per-provider settings.
type SourcesConfig struct {
	Kalshi     KalshiConfig     `yaml:"kalshi"`
	Polymarket PolymarketConfig `yaml:"polymarket"`
}

// KalshiConfig holds Kalshi REST settings.
type KalshiConfig struct {
	BaseURL      string `yaml:"base_url"`
	SeriesTicker string `yaml:"series_ticker"`
	Status       string `yaml:"status"` // Market status filter (e.g., "open")
}

// PolymarketConfig holds Polymarket Gamma API settings.
type PolymarketConfig struct {
	BaseURL string `yaml:"base_url"`
	Slug    string `yaml:"slug"` // Event slug as shown in the browser URL
}

// DatabaseConfig holds the PostgreSQL connection for the snapshot store.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ConnString renders the connection as a postgres:// URL for pgx. The
// password is escaped so credentials from ${VAR} expansion survive
// punctuation; an unset ssl_mode falls back to the package default.
func (db DBConfig) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.User, db.Password),
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	sslMode := db.SSLMode
	if sslMode == "" {
		sslMode = DefaultDBSSLMode
	}
	u.RawQuery = "sslmode=" + sslMode

	return u.String()
}

// MetricsConfig holds the health/metrics HTTP server settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
