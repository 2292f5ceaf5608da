package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/prediction-data/internal/model"
	"github.com/rickgao/prediction-data/internal/source"
)

// SnapshotStore persists one tick's merged batch atomically.
type SnapshotStore interface {
	AppendBatch(ctx context.Context, ts time.Time, snaps []model.MarketSnapshot) error
}

// Metrics receives per-tick ingestion counters.
type Metrics interface {
	RecordSnapshots(src model.Source, n int)
	RecordFetchError(src model.Source)
	RecordPersistFailure()
	RecordTick(seconds float64)
}

// Config holds orchestrator configuration.
type Config struct {
	Interval     time.Duration // Poll interval (default: 3s)
	FetchTimeout time.Duration // Budget for one adapter fetch, retries included
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     3 * time.Second,
		FetchTimeout: 2 * time.Minute,
	}
}

// SourceResult is the terminal outcome of one adapter for one tick.
type SourceResult struct {
	Source model.Source
	Count  int   // Snapshots produced (0 on failure or empty fetch)
	Err    error // Terminal fetch error, nil on success
}

// TickReport summarizes one completed tick.
type TickReport struct {
	Timestamp  time.Time // Shared capture time of the tick's batch
	Results    []SourceResult
	Written    int   // Snapshots persisted (0 if the batch was dropped)
	PersistErr error // Store failure, nil if the batch committed
	Duration   time.Duration
}

// Poller drives the fetch-normalize-persist cycle on a fixed interval.
type Poller struct {
	cfg      Config
	adapters []source.Adapter
	store    SnapshotStore
	metrics  Metrics
	logger   *slog.Logger

	mu   sync.Mutex
	last TickReport

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, adapters []source.Adapter, store SnapshotStore, metrics Metrics, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:      cfg,
		adapters: adapters,
		store:    store,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("poller started",
		"interval", p.cfg.Interval,
		"sources", len(p.adapters),
	)

	return nil
}

// Stop gracefully shuts down the poller, letting an in-flight tick
// finish up to ctx's deadline.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastReport returns the most recently completed tick's report.
func (p *Poller) LastReport() TickReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// run is the main polling loop. It only exits on shutdown; a failed
// tick is logged and the loop continues.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.tick()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick executes one cycle with a panic boundary: nothing that happens
// inside a single tick may terminate the process.
func (p *Poller) tick() {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("tick panicked", "panic", r)
		}
	}()

	report := p.pollOnce()

	p.mu.Lock()
	p.last = report
	p.mu.Unlock()
}

// pollOnce fans out all adapters concurrently, merges their results,
// and persists the batch under one shared timestamp.
func (p *Poller) pollOnce() TickReport {
	start := time.Now()

	results := make([]SourceResult, len(p.adapters))
	batches := make([][]model.MarketSnapshot, len(p.adapters))

	var wg sync.WaitGroup
	for i, adapter := range p.adapters {
		wg.Add(1)
		go func(i int, adapter source.Adapter) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("adapter panicked", "source", adapter.Source(), "panic", r)
					results[i] = SourceResult{Source: adapter.Source(), Err: fmt.Errorf("adapter panic: %v", r)}
				}
			}()

			ctx, cancel := context.WithTimeout(p.ctx, p.cfg.FetchTimeout)
			defer cancel()

			snaps, err := adapter.Fetch(ctx)
			if err != nil {
				p.logger.Warn("source unavailable this tick",
					"source", adapter.Source(),
					"error", err,
				)
				results[i] = SourceResult{Source: adapter.Source(), Err: err}
				return
			}

			batches[i] = snaps
			results[i] = SourceResult{Source: adapter.Source(), Count: len(snaps)}
		}(i, adapter)
	}
	wg.Wait()

	// Every adapter has reached a terminal outcome; merge the
	// successes and stamp the batch with one capture time.
	ts := time.Now().UTC()
	var merged []model.MarketSnapshot
	for _, snaps := range batches {
		for _, snap := range snaps {
			snap.Timestamp = ts
			merged = append(merged, snap)
		}
	}

	report := TickReport{
		Timestamp: ts,
		Results:   results,
	}

	if err := p.store.AppendBatch(p.ctx, ts, merged); err != nil {
		// The batch is dropped, not buffered: the next tick fetches
		// fresh data regardless.
		p.logger.Error("batch dropped", "count", len(merged), "error", err)
		report.PersistErr = err
		if p.metrics != nil {
			p.metrics.RecordPersistFailure()
		}
	} else {
		report.Written = len(merged)
		p.logger.Info("tick complete",
			"written", len(merged),
			"sources_failed", countFailed(results),
			"duration", time.Since(start),
		)
	}

	report.Duration = time.Since(start)

	if p.metrics != nil {
		for _, res := range results {
			if res.Err != nil {
				p.metrics.RecordFetchError(res.Source)
			} else if report.PersistErr == nil {
				p.metrics.RecordSnapshots(res.Source, res.Count)
			}
		}
		p.metrics.RecordTick(report.Duration.Seconds())
	}

	return report
}

func countFailed(results []SourceResult) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}
