// Package model defines the shared data types of the ingestion pipeline.
//
// Conventions:
//   - Prices: float64 probabilities in [0,1], normalized per provider
//   - Volumes: float64 in provider-native units (not cross-comparable)
//   - Timestamps: time.Time in UTC, assigned at persistence time
package model
