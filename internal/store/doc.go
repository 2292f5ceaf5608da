// Package store provides durable append-only persistence of market
// snapshots in PostgreSQL.
//
// The write path is a single transactional batch per poll tick:
// downstream readers never observe a half-written tick. Rows are never
// updated or deleted by the ingestion pipeline. Read queries serve the
// external reporting collaborators (latest-per-market, time-series,
// cross-source spreads).
package store
