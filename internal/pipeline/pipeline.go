// Package pipeline runs the acquisition batch: resolve every configured
// region through the source chain and upsert the result as today's snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
	"github.com/couchcryptid/trends-etl-service/internal/observability"
	"github.com/couchcryptid/trends-etl-service/internal/source"
)

// previewSize is the number of topics logged per region.
const previewSize = 5

// ErrBatchRunning is returned when a batch is started while another one is
// still in progress on the same Collector.
var ErrBatchRunning = errors.New("collection batch already running")

// Resolver produces one ranked topic list per region.
type Resolver interface {
	Resolve(ctx context.Context, region string) (source.Resolution, error)
}

// SnapshotWriter persists the resolved topics of a region for a day.
type SnapshotWriter interface {
	Today() domain.Day
	Upsert(ctx context.Context, region domain.Region, day domain.Day, topics []domain.Topic, prov domain.Provenance) (domain.Snapshot, error)
}

// Publisher announces stored snapshots to downstream consumers.
type Publisher interface {
	PublishSnapshot(ctx context.Context, runID string, snap domain.Snapshot) error
}

// RegionResult is the outcome of collecting one region.
type RegionResult struct {
	Region     string
	Provenance domain.Provenance
	Topics     []domain.Topic
	Err        error
	Duration   time.Duration
}

// Report summarizes one batch.
type Report struct {
	RunID     string
	Day       domain.Day
	Results   []RegionResult
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Collector runs collection batches over a region set with bounded
// concurrency. Regions share nothing, so one region's failure never affects
// another.
type Collector struct {
	resolver    Resolver
	store       SnapshotWriter
	publisher   Publisher
	concurrency int
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	running     atomic.Bool
	background  sync.WaitGroup
}

// New creates a Collector. publisher may be nil to disable snapshot events.
func New(r Resolver, s SnapshotWriter, p Publisher, concurrency int, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	return &Collector{
		resolver:    r,
		store:       s,
		publisher:   p,
		concurrency: max(concurrency, 1),
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run collects every region once and waits for all of them. Every region is
// processed to completion even when others fail; the report lists each
// result in input order. The calendar day is fixed when the batch starts.
func (c *Collector) Run(ctx context.Context, regions []string) (Report, error) {
	if !c.running.CompareAndSwap(false, true) {
		return Report{}, ErrBatchRunning
	}
	defer c.running.Store(false)
	return c.run(ctx, regions), nil
}

// Start launches a batch in the background and returns once it is claimed,
// or ErrBatchRunning. Cancel ctx to stop it and call Wait before closing
// the snapshot store.
func (c *Collector) Start(ctx context.Context, regions []string) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrBatchRunning
	}
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		defer c.running.Store(false)
		c.run(ctx, regions)
	}()
	return nil
}

// Wait blocks until batches launched by Start have returned.
func (c *Collector) Wait() { c.background.Wait() }

func (c *Collector) run(ctx context.Context, regions []string) Report {
	start := c.clock.Now()
	report := Report{
		RunID:   uuid.NewString(),
		Day:     c.store.Today(),
		Results: make([]RegionResult, len(regions)),
	}
	logger := c.logger.With("run_id", report.RunID)
	logger.Info("collection batch started",
		"day", report.Day,
		"regions", len(regions),
		"concurrency", c.concurrency,
	)
	c.metrics.BatchRunning.Set(1)
	defer c.metrics.BatchRunning.Set(0)

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, code := range regions {
		g.Go(func() error {
			report.Results[i] = c.collectRegion(ctx, logger, report.RunID, report.Day, code)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range report.Results {
		if r.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	report.Duration = c.clock.Since(start)
	c.metrics.BatchDuration.Observe(report.Duration.Seconds())

	logger.Info("collection batch finished",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return report
}

// Running reports whether a batch is in progress.
func (c *Collector) Running() bool { return c.running.Load() }

func (c *Collector) collectRegion(ctx context.Context, logger *slog.Logger, runID string, day domain.Day, code string) (result RegionResult) {
	start := c.clock.Now()
	result.Region = code
	defer func() {
		result.Duration = c.clock.Since(start)
		outcome := "success"
		if result.Err != nil {
			outcome = "failure"
		}
		c.metrics.RegionsProcessed.WithLabelValues(outcome).Inc()
	}()

	res, err := c.resolver.Resolve(ctx, code)
	if err != nil {
		result.Err = err
		logger.Error("region rejected", "region", code, "error", err)
		return result
	}
	result.Region = string(res.Region)
	result.Provenance = res.Provenance

	// A cancelled batch resolves to the sample set; persisting that would
	// push canned topics ahead of real ones for the day.
	if err := ctx.Err(); err != nil {
		result.Err = err
		logger.Warn("batch cancelled, region not stored", "region", res.Region)
		return result
	}

	snap, err := c.store.Upsert(ctx, res.Region, day, res.Topics, res.Provenance)
	if err != nil {
		c.metrics.SnapshotUpserts.WithLabelValues("error").Inc()
		result.Err = err
		logger.Error("snapshot upsert failed, skipping region",
			"region", res.Region,
			"provenance", res.Provenance,
			"error", err,
		)
		return result
	}
	c.metrics.SnapshotUpserts.WithLabelValues("success").Inc()
	result.Topics = snap.Topics

	if c.publisher != nil {
		if err := c.publisher.PublishSnapshot(ctx, runID, snap); err != nil {
			c.metrics.PublishErrors.Inc()
			logger.Warn("snapshot event not published", "region", res.Region, "error", err)
		}
	}

	logger.Info("region collected",
		"region", res.Region,
		"provenance", res.Provenance,
		"topics", len(snap.Topics),
		"attempts", len(res.Attempts),
		"top", preview(res.Topics),
	)
	return result
}

// preview renders the first topics as "title (volume, started)".
func preview(topics []domain.Topic) []string {
	out := make([]string, 0, min(len(topics), previewSize))
	for _, t := range topics[:min(len(topics), previewSize)] {
		line := t.Title
		switch {
		case t.SearchVolume != "" && t.StartedAgo != "":
			line = fmt.Sprintf("%s (%s, %s)", t.Title, t.SearchVolume, t.StartedAgo)
		case t.SearchVolume != "":
			line = fmt.Sprintf("%s (%s)", t.Title, t.SearchVolume)
		case t.StartedAgo != "":
			line = fmt.Sprintf("%s (%s)", t.Title, t.StartedAgo)
		}
		out = append(out, line)
	}
	return out
}
