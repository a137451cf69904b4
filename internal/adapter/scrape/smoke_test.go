//go:build chrome

package scrape

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

// These tests drive a real Chrome against the live trending page.
// Run with: go test -tags=chrome ./internal/adapter/scrape/ -v -count=1

func TestSmoke_RenderTrendingPage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewProvider(NewChromeRenderer(4*time.Second, logger), Options{
		DefaultDomain: "trends.google.com",
		Timeout:       45 * time.Second,
	}, logger)

	rows, err := p.Attempt(context.Background(), "US")
	require.NoError(t, err)

	topics := domain.Normalize(rows)
	assert.NotEmpty(t, topics)
	t.Logf("scraped %d topics, first: %v", len(topics), domain.Titles(topics)[:min(5, len(topics))])
}
