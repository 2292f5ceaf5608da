package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
// instance.id may be empty; the ingestor generates one at startup.
func (c *IngestorConfig) Validate() error {
	if c.Poll.Interval <= 0 {
		return errors.New("poll.interval must be positive")
	}

	if c.Client.MaxAttempts < 1 {
		return errors.New("client.max_attempts must be >= 1")
	}
	if c.Client.RetryBaseDelay <= 0 {
		return errors.New("client.retry_base_delay must be positive")
	}
	if c.Client.RetryMaxDelay < c.Client.RetryBaseDelay {
		return fmt.Errorf("client.retry_max_delay (%v) cannot be less than retry_base_delay (%v)",
			c.Client.RetryMaxDelay, c.Client.RetryBaseDelay)
	}

	if c.Sources.Kalshi.SeriesTicker == "" {
		return errors.New("sources.kalshi.series_ticker is required")
	}
	if c.Sources.Polymarket.Slug == "" {
		return errors.New("sources.polymarket.slug is required")
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
