package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/trends-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/trends-etl-service/internal/adapter/legacyapi"
	"github.com/couchcryptid/trends-etl-service/internal/adapter/lru"
	"github.com/couchcryptid/trends-etl-service/internal/adapter/pebble"
	"github.com/couchcryptid/trends-etl-service/internal/adapter/postgres"
	"github.com/couchcryptid/trends-etl-service/internal/adapter/redis"
	"github.com/couchcryptid/trends-etl-service/internal/adapter/scrape"
	"github.com/couchcryptid/trends-etl-service/internal/adapter/searchapi"
	"github.com/couchcryptid/trends-etl-service/internal/aggregate"
	"github.com/couchcryptid/trends-etl-service/internal/config"
	"github.com/couchcryptid/trends-etl-service/internal/observability"
	"github.com/couchcryptid/trends-etl-service/internal/pipeline"
	"github.com/couchcryptid/trends-etl-service/internal/snapshot"
	"github.com/couchcryptid/trends-etl-service/internal/source"
)

// openRepository opens the snapshot backend selected by STORE_DRIVER.
func openRepository(ctx context.Context, cfg *config.Config) (snapshot.Repository, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		repo, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.StoreTimeout)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.StorePebble:
		repo, err := pebble.Open(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// buildProviders returns the source providers in chain order: unmetered
// scrape, metered search API, then the keyless legacy endpoints.
func buildProviders(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) []source.Provider {
	var providers []source.Provider
	if cfg.UseScraper {
		providers = append(providers, scrape.NewProvider(
			scrape.NewChromeRenderer(cfg.ScrapeSettle, logger),
			scrape.Options{
				Domains:       cfg.Tables.ScrapeDomains,
				DefaultDomain: cfg.Tables.DefaultScrapeDomain,
				Timeout:       cfg.ScrapeTimeout,
			},
			logger,
		))
	}
	providers = append(providers, searchapi.NewClient(searchapi.Options{
		APIKey:        cfg.SearchAPIKey,
		BaseURL:       cfg.SearchAPIURL,
		Timeout:       cfg.SearchAPITimeout,
		MinInterval:   cfg.SearchAPIInterval,
		Locales:       cfg.Tables.Locales,
		DefaultLocale: cfg.Tables.DefaultLocale,
	}, clock, logger))
	if cfg.LegacyAPIEnabled {
		providers = append(providers, legacyapi.NewClient(legacyapi.Options{
			BaseURL:           cfg.LegacyAPIURL,
			Timeout:           cfg.LegacyAPITimeout,
			MarketNames:       cfg.Tables.RegionNames,
			DefaultMarketName: cfg.Tables.DefaultRegionName,
			Locale:            cfg.Tables.DefaultLocale,
		}, logger))
	}
	return providers
}

func buildChain(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *source.Chain {
	return source.NewChain(source.Config{
		Providers:    buildProviders(cfg, clock, logger),
		SampleTopics: cfg.Tables.SampleTopics,
		ForceSample:  cfg.UseSample,
	}, logger, metrics)
}

// buildViewCache prefers a shared Redis cache and falls back to an
// in-process LRU. The returned func releases the cache.
func buildViewCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (aggregate.ViewCache, func() error, error) {
	if cfg.RedisURL == "" {
		return lru.NewCache(cfg.ViewCacheSize, cfg.ViewCacheTTL), func() error { return nil }, nil
	}
	cache, err := redis.NewCache(cfg.RedisURL, cfg.ViewCacheTTL)
	if err != nil {
		return nil, nil, err
	}
	if err := cache.Ping(ctx); err != nil {
		logger.Warn("redis unreachable at startup, reads fall through to the store", "error", err)
	}
	return cache, cache.Close, nil
}

// buildPublisher returns the Kafka snapshot writer, or a nil Publisher when
// publishing is disabled.
func buildPublisher(cfg *config.Config, logger *slog.Logger) (pipeline.Publisher, func() error) {
	if !cfg.PublishEnabled() {
		return nil, func() error { return nil }
	}
	w := kafka.NewWriter(cfg, logger)
	return w, w.Close
}

// storeReadiness reports ready while the snapshot backend answers.
type storeReadiness struct {
	store *snapshot.Store
}

func (r storeReadiness) CheckReadiness(ctx context.Context) error {
	return r.store.Ping(ctx)
}
