// Package polymarket fetches event data from the Polymarket Gamma API
// and normalizes it into canonical snapshots.
package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rickgao/prediction-data/internal/model"
	"github.com/rickgao/prediction-data/internal/source"
)

// Config holds the static fetch parameters for one Polymarket event.
type Config struct {
	BaseURL string // e.g. https://gamma-api.polymarket.com
	Slug    string // Event slug, e.g. "nba-mvp-694"
}

// Adapter polls the Polymarket event-by-slug endpoint.
type Adapter struct {
	cfg    Config
	client *source.Client
	logger *slog.Logger
}

// New creates a Polymarket adapter.
func New(cfg Config, client *source.Client, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		cfg:    cfg,
		client: client,
		logger: logger.With("source", model.SourcePolymarket),
	}
}

// Source implements source.Adapter.
func (a *Adapter) Source() model.Source {
	return model.SourcePolymarket
}

// apiEvent from GET /events/slug/{slug}. An event nests one market per
// outcome group (for the MVP race, one market per player). Markets are
// kept raw so one undecodable market skips itself, not the whole fetch.
type apiEvent struct {
	Markets []json.RawMessage `json:"markets"`
}

type apiMarket struct {
	ID       flexString `json:"id"`
	Question string     `json:"question"`

	// Parallel arrays. The Gamma API frequently returns these as
	// JSON-encoded strings ("[\"Yes\",\"No\"]") instead of native
	// arrays; stringList decodes both forms.
	Outcomes      stringList `json:"outcomes"`
	OutcomePrices stringList `json:"outcomePrices"`

	Volume flexFloat `json:"volume"`
}

// Fetch implements source.Adapter. One GET per call; a 404 (unknown
// slug) yields no data rather than an error. Markets with missing or
// undecodable outcome/price arrays are skipped individually.
func (a *Adapter) Fetch(ctx context.Context) ([]model.MarketSnapshot, error) {
	url := a.cfg.BaseURL + "/events/slug/" + a.cfg.Slug

	var event apiEvent
	err := a.client.GetJSON(ctx, url, nil, &event)
	if errors.Is(err, source.ErrNotFound) {
		a.logger.Warn("event slug not found", "slug", a.cfg.Slug)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch polymarket event: %w", err)
	}

	var snapshots []model.MarketSnapshot
	for _, raw := range event.Markets {
		var m apiMarket
		if err := json.Unmarshal(raw, &m); err != nil {
			a.logger.Debug("skipping undecodable market", "error", err)
			continue
		}
		snapshots = append(snapshots, a.normalize(m)...)
	}

	return snapshots, nil
}

// normalize emits one snapshot per (market, outcome index) pair,
// zipping the outcome and price arrays positionally. Prices are
// already probabilities in [0,1] and pass through unchanged.
func (a *Adapter) normalize(m apiMarket) []model.MarketSnapshot {
	if len(m.Outcomes) == 0 || len(m.OutcomePrices) == 0 {
		a.logger.Debug("skipping market with missing outcome data",
			"market_id", string(m.ID),
			"question", m.Question,
		)
		return nil
	}

	n := len(m.Outcomes)
	if len(m.OutcomePrices) < n {
		n = len(m.OutcomePrices)
	}

	snapshots := make([]model.MarketSnapshot, 0, n)
	for i := 0; i < n; i++ {
		price, err := m.OutcomePrices[i].Float64()
		if err != nil {
			a.logger.Debug("skipping outcome with undecodable price",
				"market_id", string(m.ID),
				"outcome", string(m.Outcomes[i]),
				"error", err,
			)
			continue
		}

		snapshots = append(snapshots, model.MarketSnapshot{
			Source:   model.SourcePolymarket,
			MarketID: string(m.ID),
			Title:    m.Question,
			Outcome:  string(m.Outcomes[i]),
			Price:    price,
			Volume:   float64(m.Volume),
		})
	}

	return snapshots
}
