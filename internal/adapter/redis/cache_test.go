package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewCache("redis://"+mr.Addr(), 5*time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func testView() *domain.WindowView {
	return &domain.WindowView{
		Region: "US",
		Window: domain.TrailingWeek,
		Topics: []domain.AnnotatedTopic{
			{Topic: domain.Topic{Title: "A", SearchVolume: "10K+"}, DaysOngoing: 4},
			{Topic: domain.Topic{Title: "B"}},
		},
		Provenance: domain.ProvenanceScrape,
		FetchedAt:  time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "view:US:trailing_week:2024-03-10")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "view:US:trailing_week:2024-03-10", testView()))
	assert.True(t, mr.Exists(keyPrefix+"view:US:trailing_week:2024-03-10"))

	got, ok, err := c.Get(ctx, "view:US:trailing_week:2024-03-10")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testView(), got)
}

func TestCache_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", testView()))
	mr.FastForward(6 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(keyPrefix+"k", "{not json"))

	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
}

func TestCache_ServerDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, c.Set(context.Background(), "k", testView()))
	require.Error(t, c.Ping(context.Background()))
}

func TestNewCache_InvalidURL(t *testing.T) {
	_, err := NewCache("not-a-url", time.Minute)
	require.Error(t, err)
}
