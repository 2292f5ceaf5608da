package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/prediction-data/internal/model"
)

// AppendBatch writes one tick's snapshots in a single transaction, all
// stamped with the same capture time ts. The whole batch commits or
// none of it does. An empty batch is a no-op.
func (s *Store) AppendBatch(ctx context.Context, ts time.Time, snaps []model.MarketSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, snap := range snaps {
		batch.Queue(`
			INSERT INTO market_snapshots (source, market_id, title, outcome, price, volume, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, string(snap.Source), snap.MarketID, snap.Title, snap.Outcome, snap.Price, snap.Volume, ts)
	}

	results := tx.SendBatch(ctx, batch)
	for range snaps {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	return nil
}

// LatestPerMarket returns the most recent snapshot for each
// (source, market_id) pair, newest first.
func (s *Store) LatestPerMarket(ctx context.Context, limit int) ([]model.MarketSnapshot, error) {
	rows, err := s.db.Query(ctx, `
		WITH ranked AS (
			SELECT source, market_id, title, outcome, price, volume, timestamp,
			       ROW_NUMBER() OVER (
			           PARTITION BY source, market_id
			           ORDER BY timestamp DESC
			       ) AS rn
			FROM market_snapshots
		)
		SELECT source, market_id, title, outcome, price, volume, timestamp
		FROM ranked
		WHERE rn = 1
		ORDER BY timestamp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// TimeSeriesPoint is one observation of a single market over time.
type TimeSeriesPoint struct {
	Timestamp time.Time
	Price     float64
	Volume    float64
}

// TimeSeries returns the most recent observations for one market from
// one source, newest first.
func (s *Store) TimeSeries(ctx context.Context, marketID string, src model.Source, limit int) ([]TimeSeriesPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT timestamp, price, volume
		FROM market_snapshots
		WHERE market_id = $1
		  AND source = $2
		ORDER BY timestamp DESC
		LIMIT $3
	`, marketID, string(src), limit)
	if err != nil {
		return nil, fmt.Errorf("query time series: %w", err)
	}
	defer rows.Close()

	var points []TimeSeriesPoint
	for rows.Next() {
		var p TimeSeriesPoint
		if err := rows.Scan(&p.Timestamp, &p.Price, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan time series row: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// SpreadRow pairs two sources' latest prices for the same market title.
type SpreadRow struct {
	Title     string
	AMarketID string
	BMarketID string
	APrice    float64
	BPrice    float64
	Spread    float64
}

// Spreads joins the latest snapshots of two sources on matching title
// and returns pairs whose absolute price difference exceeds threshold,
// widest first.
func (s *Store) Spreads(ctx context.Context, a, b model.Source, threshold float64, limit int) ([]SpreadRow, error) {
	rows, err := s.db.Query(ctx, `
		WITH latest AS (
			SELECT source, market_id, title, price,
			       ROW_NUMBER() OVER (
			           PARTITION BY source, market_id
			           ORDER BY timestamp DESC
			       ) AS rn
			FROM market_snapshots
		)
		SELECT a.title,
		       a.market_id AS a_market_id,
		       b.market_id AS b_market_id,
		       a.price     AS a_price,
		       b.price     AS b_price,
		       ABS(a.price - b.price) AS spread
		FROM latest a
		JOIN latest b ON a.title = b.title
		WHERE a.source = $1
		  AND b.source = $2
		  AND a.rn = 1
		  AND b.rn = 1
		  AND ABS(a.price - b.price) > $3
		ORDER BY spread DESC
		LIMIT $4
	`, string(a), string(b), threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("query spreads: %w", err)
	}
	defer rows.Close()

	var spreads []SpreadRow
	for rows.Next() {
		var r SpreadRow
		if err := rows.Scan(&r.Title, &r.AMarketID, &r.BMarketID, &r.APrice, &r.BPrice, &r.Spread); err != nil {
			return nil, fmt.Errorf("scan spread row: %w", err)
		}
		spreads = append(spreads, r)
	}
	return spreads, rows.Err()
}

func scanSnapshots(rows pgx.Rows) ([]model.MarketSnapshot, error) {
	var snaps []model.MarketSnapshot
	for rows.Next() {
		var snap model.MarketSnapshot
		var src string
		if err := rows.Scan(&src, &snap.MarketID, &snap.Title, &snap.Outcome, &snap.Price, &snap.Volume, &snap.Timestamp); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Source = model.Source(src)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
