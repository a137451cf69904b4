package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultRegions is the region set collected when TRENDS_REGIONS is unset.
var DefaultRegions = []string{"US", "GB", "FR", "DE", "IN", "JP", "BR", "CA", "AU", "ES", "CR"}

// Store drivers.
const (
	StorePebble   = "pebble"
	StorePostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Batch collection.
	Regions     []string
	Concurrency int

	// Source chain.
	UseSample         bool
	UseScraper        bool
	ScrapeTimeout     time.Duration
	ScrapeSettle      time.Duration
	SearchAPIKey      string
	SearchAPIURL      string
	SearchAPITimeout  time.Duration
	SearchAPIInterval time.Duration
	LegacyAPIEnabled  bool
	LegacyAPIURL      string
	LegacyAPITimeout  time.Duration
	Tables            Tables

	// Snapshot storage.
	StoreDriver  string
	StorePath    string
	DatabaseURL  string
	StoreTimeout time.Duration

	// Window view cache.
	RedisURL      string
	ViewCacheTTL  time.Duration
	ViewCacheSize int

	// Snapshot events. Publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	tables, err := LoadTables(os.Getenv("PROVIDER_TABLES_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Regions: parseList(os.Getenv("TRENDS_REGIONS"), DefaultRegions),

		SearchAPIKey:       strings.TrimSpace(os.Getenv("SEARCH_API_KEY")),
		SearchAPIURL:       sharedcfg.EnvOrDefault("SEARCH_API_URL", "https://serpapi.com/search"),
		LegacyAPIURL:       sharedcfg.EnvOrDefault("LEGACY_API_URL", "https://trends.google.com"),
		Tables:             tables,
		StoreDriver:        strings.ToLower(sharedcfg.EnvOrDefault("STORE_DRIVER", StorePebble)),
		StorePath:          sharedcfg.EnvOrDefault("STORE_PATH", "data/trends"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "trend-snapshots"),
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg.Concurrency, err = parseInt("TRENDS_CONCURRENCY", 4, 1, 32)
	collect(err)
	cfg.ViewCacheSize, err = parseInt("VIEW_CACHE_SIZE", 256, 1, 1_000_000)
	collect(err)

	cfg.UseSample, err = parseBool("TRENDS_USE_SAMPLE", false)
	collect(err)
	cfg.UseScraper, err = parseBool("TRENDS_USE_SCRAPER", true)
	collect(err)
	cfg.LegacyAPIEnabled, err = parseBool("LEGACY_API_ENABLED", true)
	collect(err)

	cfg.ScrapeTimeout, err = parseDuration("SCRAPE_TIMEOUT", "35s")
	collect(err)
	cfg.ScrapeSettle, err = parseDuration("SCRAPE_SETTLE", "4s")
	collect(err)
	cfg.SearchAPITimeout, err = parseDuration("SEARCH_API_TIMEOUT", "15s")
	collect(err)
	cfg.SearchAPIInterval, err = parseDuration("SEARCH_API_MIN_INTERVAL", "1s")
	collect(err)
	cfg.LegacyAPITimeout, err = parseDuration("LEGACY_API_TIMEOUT", "15s")
	collect(err)
	cfg.StoreTimeout, err = parseDuration("STORE_TIMEOUT", "3s")
	collect(err)
	cfg.ViewCacheTTL, err = parseDuration("VIEW_CACHE_TTL", "5m")
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if len(cfg.Regions) == 0 {
		return nil, errors.New("TRENDS_REGIONS must list at least one region")
	}
	if cfg.ScrapeSettle >= cfg.ScrapeTimeout {
		return nil, errors.New("SCRAPE_SETTLE must be shorter than SCRAPE_TIMEOUT")
	}
	switch cfg.StoreDriver {
	case StorePebble:
		if cfg.StorePath == "" {
			return nil, errors.New("STORE_PATH is required for the pebble store")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q (use pebble or postgres)", cfg.StoreDriver)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// PublishEnabled reports whether snapshot events go to Kafka.
func (c *Config) PublishEnabled() bool { return len(c.KafkaBrokers) > 0 }

func parseList(s string, def []string) []string {
	if strings.TrimSpace(s) == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch s {
	case "":
		return def, nil
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid %s: %q is not a boolean", key, s)
}
