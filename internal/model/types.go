package model

import (
	"fmt"
	"time"
)

// Source identifies the provider an observation came from.
type Source string

const (
	SourceKalshi     Source = "kalshi"
	SourcePolymarket Source = "polymarket"
)

// ParseSource converts a string to a Source.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceKalshi, SourcePolymarket:
		return Source(s), nil
	default:
		return "", fmt.Errorf("unknown source %q", s)
	}
}

// MarketSnapshot is one normalized (market, outcome, price, volume)
// observation. Snapshots form an append-only time series; the same
// (source, market, outcome) tuple recurs once per poll tick.
type MarketSnapshot struct {
	Source   Source // Producing adapter
	MarketID string // Provider-native market identifier, unique within a source
	Title    string // Market question; join key across sources
	Outcome  string // Outcome label (e.g., a candidate name)

	Price  float64 // Normalized mid price or reported probability, in [0,1]
	Volume float64 // Trading volume in provider-native units

	// Timestamp is the capture time, shared by every snapshot of one
	// tick. Left zero by adapters; set by the orchestrator before the
	// batch is persisted.
	Timestamp time.Time
}
