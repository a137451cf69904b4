// Package source resolves one ranked topic list per region by trying an
// ordered list of providers until one yields usable topics.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
	"github.com/couchcryptid/trends-etl-service/internal/observability"
)

// Provider is one upstream source of trending topics. Attempt returns the
// provider's raw rows; the chain normalizes them. Returning
// domain.ErrProviderSkipped marks the provider as not configured.
type Provider interface {
	Name() string
	Provenance() domain.Provenance
	Attempt(ctx context.Context, region domain.Region) ([]domain.Row, error)
}

// Config is the immutable configuration of a Chain.
type Config struct {
	// Providers are tried in order. Cheaper and unmetered sources go first.
	Providers []Provider
	// SampleTopics is the static fallback set. DefaultSampleTopics is used
	// when empty.
	SampleTopics []string
	// ForceSample answers every region from the sample set without touching
	// any provider.
	ForceSample bool
}

// Outcome labels of a provider attempt.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Attempt records one provider attempt made while resolving a region.
type Attempt struct {
	Provider string
	Outcome  string
	Err      error
	Duration time.Duration
}

// Resolution is the result of resolving one region.
type Resolution struct {
	Region     domain.Region
	Topics     []domain.Topic
	Provenance domain.Provenance
	Attempts   []Attempt
}

// Chain drives the provider fallback sequence. It is safe for concurrent
// use across regions: it holds no mutable state.
type Chain struct {
	providers   []Provider
	sample      *Sample
	forceSample bool
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewChain builds a chain whose last step is always the static sample set.
func NewChain(cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Chain {
	return &Chain{
		providers:   append([]Provider(nil), cfg.Providers...),
		sample:      NewSample(cfg.SampleTopics),
		forceSample: cfg.ForceSample,
		logger:      logger,
		metrics:     metrics,
	}
}

// Resolve returns between 1 and domain.MaxTopics topics for region. The only
// error is domain.ErrInvalidRegion, returned before any provider runs.
// Providers run strictly one after another; a later provider is never
// invoked once an earlier one produced a usable result.
func (c *Chain) Resolve(ctx context.Context, code string) (Resolution, error) {
	region, err := domain.ParseRegion(code)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Region: region}
	if !c.forceSample {
		for _, p := range c.providers {
			if ctx.Err() != nil {
				break
			}
			topics, a := c.attempt(ctx, p, region)
			res.Attempts = append(res.Attempts, a)
			if a.Outcome == OutcomeSuccess {
				res.Topics = topics
				res.Provenance = p.Provenance()
				c.metrics.Resolutions.WithLabelValues(string(res.Provenance)).Inc()
				return res, nil
			}
		}
	}

	topics, a := c.attempt(ctx, c.sample, region)
	res.Attempts = append(res.Attempts, a)
	res.Topics = topics
	res.Provenance = domain.ProvenanceSample
	c.metrics.Resolutions.WithLabelValues(string(res.Provenance)).Inc()
	return res, nil
}

// attempt runs one provider in isolation. Errors, empty results and panics
// are all reported through the returned Attempt, never propagated.
func (c *Chain) attempt(ctx context.Context, p Provider, region domain.Region) (topics []domain.Topic, a Attempt) {
	name := p.Name()
	start := time.Now()
	a.Provider = name

	defer func() {
		if r := recover(); r != nil {
			topics = nil
			a.Outcome = OutcomeError
			a.Err = &domain.ProviderError{Provider: name, Err: fmt.Errorf("panic: %v", r)}
		}
		a.Duration = time.Since(start)
		c.metrics.ProviderAttempts.WithLabelValues(name, a.Outcome).Inc()
		c.metrics.ProviderDuration.WithLabelValues(name).Observe(a.Duration.Seconds())
		c.log(region, a)
	}()

	rows, err := p.Attempt(ctx, region)
	switch {
	case errors.Is(err, domain.ErrProviderSkipped):
		a.Outcome = OutcomeSkipped
		return nil, a
	case err != nil:
		a.Outcome = OutcomeError
		a.Err = &domain.ProviderError{Provider: name, Err: err}
		return nil, a
	}

	topics = domain.Normalize(rows)
	if len(topics) == 0 {
		a.Outcome = OutcomeEmpty
		a.Err = &domain.ProviderError{Provider: name, Err: domain.ErrEmptyResult}
		return nil, a
	}
	a.Outcome = OutcomeSuccess
	return topics, a
}

func (c *Chain) log(region domain.Region, a Attempt) {
	attrs := []any{"region", region, "provider", a.Provider, "outcome", a.Outcome, "duration", a.Duration}
	switch a.Outcome {
	case OutcomeError, OutcomeEmpty:
		c.logger.Warn("provider attempt failed", append(attrs, "error", a.Err)...)
	default:
		c.logger.Debug("provider attempt", attrs...)
	}
}
