package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
	"github.com/couchcryptid/trends-etl-service/internal/observability"
)

// ViewCache stores rendered views by key. Implementations expire entries on
// their own; a cache failure is treated as a miss.
type ViewCache interface {
	Get(ctx context.Context, key string) (*domain.WindowView, bool, error)
	Set(ctx context.Context, key string, view *domain.WindowView) error
}

// Read outcomes.
const (
	OutcomeFound      = "found"
	OutcomeNoData     = "no_data"
	OutcomeStoreError = "store_error"
)

// Reader is the outermost read entry point. It bounds every storage access
// with a short timeout and maps storage failures to "no data" so callers
// always get real data or an explicit empty result. It never runs the
// source chain.
type Reader struct {
	agg     *Aggregator
	cache   ViewCache
	timeout time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReader creates a Reader. cache may be nil.
func NewReader(agg *Aggregator, cache ViewCache, timeout time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Reader {
	return &Reader{
		agg:     agg,
		cache:   cache,
		timeout: timeout,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Read returns the view of region over window, or nil for no data. The
// only errors are input validation errors.
func (r *Reader) Read(ctx context.Context, region domain.Region, window domain.Window) (*domain.WindowView, error) {
	region, err := domain.ParseRegion(string(region))
	if err != nil {
		return nil, err
	}
	if window != domain.SingleDay && window != domain.TrailingWeek {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidWindow, window)
	}

	key := CacheKey(region, window, domain.DayOf(r.clock.Now()))
	if view, ok := r.cached(ctx, key); ok {
		return view, nil
	}

	readCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	view, err := r.agg.Get(readCtx, region, window)
	switch {
	case err != nil:
		r.metrics.ViewReads.WithLabelValues(OutcomeStoreError).Inc()
		r.logger.Warn("window view unavailable, serving no data",
			"region", region,
			"window", window,
			"error", err,
		)
		return nil, nil
	case view == nil:
		r.metrics.ViewReads.WithLabelValues(OutcomeNoData).Inc()
		return nil, nil
	}

	r.metrics.ViewReads.WithLabelValues(OutcomeFound).Inc()
	r.store(ctx, key, view)
	return view, nil
}

func (r *Reader) cached(ctx context.Context, key string) (*domain.WindowView, bool) {
	if r.cache == nil {
		return nil, false
	}
	view, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("view cache read failed", "key", key, "error", err)
	}
	if err != nil || !ok {
		r.metrics.ViewCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	r.metrics.ViewCache.WithLabelValues("hit").Inc()
	return view, true
}

func (r *Reader) store(ctx context.Context, key string, view *domain.WindowView) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, view); err != nil {
		r.logger.Warn("view cache write failed", "key", key, "error", err)
	}
}
