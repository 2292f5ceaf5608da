// Package metrics provides Prometheus metrics for monitoring the
// ingestion pipeline.
//
// Key metrics:
//   - Snapshots written and fetch errors, per source
//   - Tick counts, durations, and persist failures
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rickgao/prediction-data/internal/model"
)

// Recorder exposes ingestion counters backed by Prometheus.
type Recorder struct {
	snapshotsWritten *prometheus.CounterVec
	fetchErrors      *prometheus.CounterVec
	persistFailures  prometheus.Counter
	ticks            prometheus.Counter
	tickDuration     prometheus.Histogram
}

// New creates a Recorder registered with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		snapshotsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingestor_snapshots_written_total",
				Help: "Total number of snapshots persisted, by source",
			},
			[]string{"source"},
		),
		fetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingestor_fetch_errors_total",
				Help: "Total number of failed adapter fetches, by source",
			},
			[]string{"source"},
		),
		persistFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ingestor_persist_failures_total",
				Help: "Total number of dropped batches due to store errors",
			},
		),
		ticks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ingestor_ticks_total",
				Help: "Total number of completed poll ticks",
			},
		),
		tickDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingestor_tick_duration_seconds",
				Help:    "Duration of one fetch-normalize-persist cycle",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordSnapshots records n snapshots persisted for a source.
func (r *Recorder) RecordSnapshots(src model.Source, n int) {
	r.snapshotsWritten.WithLabelValues(string(src)).Add(float64(n))
}

// RecordFetchError records a failed fetch for a source.
func (r *Recorder) RecordFetchError(src model.Source) {
	r.fetchErrors.WithLabelValues(string(src)).Inc()
}

// RecordPersistFailure records a dropped batch.
func (r *Recorder) RecordPersistFailure() {
	r.persistFailures.Inc()
}

// RecordTick records a completed tick and its duration in seconds.
func (r *Recorder) RecordTick(seconds float64) {
	r.ticks.Inc()
	r.tickDuration.Observe(seconds)
}
