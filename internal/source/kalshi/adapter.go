// Package kalshi fetches market data from the Kalshi REST API and
// normalizes it into canonical snapshots.
package kalshi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/rickgao/prediction-data/internal/model"
	"github.com/rickgao/prediction-data/internal/source"
)

// Config holds the static fetch parameters for one Kalshi series.
type Config struct {
	BaseURL      string // e.g. https://api.elections.kalshi.com/trade-api/v2
	SeriesTicker string // Series filter, e.g. "KXNBAMVP"
	Status       string // Market status filter, e.g. "open"
}

// Adapter polls the Kalshi markets endpoint.
type Adapter struct {
	cfg    Config
	client *source.Client
	logger *slog.Logger
}

// New creates a Kalshi adapter.
func New(cfg Config, client *source.Client, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		cfg:    cfg,
		client: client,
		logger: logger.With("source", model.SourceKalshi),
	}
}

// Source implements source.Adapter.
func (a *Adapter) Source() model.Source {
	return model.SourceKalshi
}

// marketsResponse from GET /markets
type marketsResponse struct {
	Markets []apiMarket `json:"markets"`
}

// apiMarket is the subset of the Kalshi market object the pipeline
// uses. Quotes arrive in cents (0-100). They are pointers because an
// absent ask must default to 100 (worst case for a buyer) and an
// absent bid to 0, which a zero value cannot distinguish. Liquidity is
// decoded but has no column in the canonical snapshot.
type apiMarket struct {
	Ticker      string   `json:"ticker"`
	Title       string   `json:"title"`
	YesSubTitle string   `json:"yes_sub_title"`
	YesAsk      *int     `json:"yes_ask"`
	YesBid      *int     `json:"yes_bid"`
	Volume      *float64 `json:"volume"`
	Liquidity   *float64 `json:"liquidity"`
}

// Fetch implements source.Adapter. One GET per call; a 404 (unknown
// series) yields no data rather than an error.
func (a *Adapter) Fetch(ctx context.Context) ([]model.MarketSnapshot, error) {
	query := url.Values{}
	if a.cfg.Status != "" {
		query.Set("status", a.cfg.Status)
	}
	if a.cfg.SeriesTicker != "" {
		query.Set("series_ticker", a.cfg.SeriesTicker)
	}

	var resp marketsResponse
	err := a.client.GetJSON(ctx, a.cfg.BaseURL+"/markets", query, &resp)
	if errors.Is(err, source.ErrNotFound) {
		a.logger.Warn("series not found", "series_ticker", a.cfg.SeriesTicker)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch kalshi markets: %w", err)
	}

	snapshots := make([]model.MarketSnapshot, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		if m.Ticker == "" {
			a.logger.Debug("skipping market without ticker")
			continue
		}
		snapshots = append(snapshots, normalize(m))
	}

	return snapshots, nil
}

// normalize maps one Kalshi market to a snapshot. Quotes arrive on a
// 0-100 cent scale; the mid price of best ask and best bid is divided
// down to [0,1].
func normalize(m apiMarket) model.MarketSnapshot {
	ask := 100
	if m.YesAsk != nil {
		ask = *m.YesAsk
	}
	bid := 0
	if m.YesBid != nil {
		bid = *m.YesBid
	}

	var volume float64
	if m.Volume != nil {
		volume = *m.Volume
	}

	return model.MarketSnapshot{
		Source:   model.SourceKalshi,
		MarketID: m.Ticker,
		Title:    m.Title,
		Outcome:  m.YesSubTitle,
		Price:    float64(ask+bid) / 2.0 / 100.0,
		Volume:   volume,
	}
}
