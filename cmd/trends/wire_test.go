package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trends-etl-service/internal/adapter/lru"
	"github.com/couchcryptid/trends-etl-service/internal/config"
	"github.com/couchcryptid/trends-etl-service/internal/domain"
	"github.com/couchcryptid/trends-etl-service/internal/snapshot"
	"github.com/couchcryptid/trends-etl-service/internal/snapshot/snapshottest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tables, err := config.LoadTables("")
	require.NoError(t, err)
	return &config.Config{
		UseScraper:       true,
		ScrapeTimeout:    35 * time.Second,
		ScrapeSettle:     4 * time.Second,
		SearchAPITimeout: 15 * time.Second,
		LegacyAPIEnabled: true,
		LegacyAPITimeout: 15 * time.Second,
		Tables:           tables,
		ViewCacheSize:    8,
		ViewCacheTTL:     time.Minute,
		StoreDriver:      config.StorePebble,
		StorePath:        t.TempDir(),
		StoreTimeout:     time.Second,
	}
}

func providerNames(cfg *config.Config) []string {
	var names []string
	for _, p := range buildProviders(cfg, clockwork.NewFakeClock(), discardLogger()) {
		names = append(names, p.Name())
	}
	return names
}

func TestBuildProviders_Order(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, []string{"scrape", "search_api", "legacy_api"}, providerNames(cfg))
}

func TestBuildProviders_Toggles(t *testing.T) {
	cfg := testConfig(t)
	cfg.UseScraper = false
	cfg.LegacyAPIEnabled = false
	assert.Equal(t, []string{"search_api"}, providerNames(cfg))
}

func TestBuildViewCache_DefaultsToLRU(t *testing.T) {
	cache, closeCache, err := buildViewCache(context.Background(), testConfig(t), discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &lru.Cache{}, cache)
	assert.NoError(t, closeCache())
}

func TestBuildPublisher_DisabledWithoutBrokers(t *testing.T) {
	pub, closePub := buildPublisher(testConfig(t), discardLogger())
	assert.Nil(t, pub)
	assert.NoError(t, closePub())
}

func TestOpenRepository_Pebble(t *testing.T) {
	cfg := testConfig(t)
	repo, err := openRepository(context.Background(), cfg)
	require.NoError(t, err)
	defer repo.Close()
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestOpenRepository_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreDriver = "mongo"
	_, err := openRepository(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestImportLegacy(t *testing.T) {
	repo := snapshottest.NewRepository()
	store := snapshot.NewStore(repo, clockwork.NewFakeClock(), discardLogger())
	in := strings.NewReader(`[
		{"region":"us","topics":[{"title":"Taxes"}],"source":"search_api","fetched_at":"2024-03-01T08:00:00Z"},
		{"region":"FR","topics":[{"title":"Météo"}],"source":"legacy_api"}
	]`)

	n, err := importLegacy(context.Background(), in, store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snap, ok, err := repo.Legacy(context.Background(), "US")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Taxes"}, domain.Titles(snap.Topics))
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), snap.FetchedAt)
}

func TestImportLegacy_StopsAtInvalidRecord(t *testing.T) {
	repo := snapshottest.NewRepository()
	store := snapshot.NewStore(repo, clockwork.NewFakeClock(), discardLogger())
	in := strings.NewReader(`[{"region":"US","source":"sample"},{"region":"USA","source":"sample"}]`)

	n, err := importLegacy(context.Background(), in, store)
	require.ErrorIs(t, err, domain.ErrInvalidRegion)
	assert.Equal(t, 1, n)
}

func TestVersionCmd_Short(t *testing.T) {
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version", "--short"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", buf.String())
}
