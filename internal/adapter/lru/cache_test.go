package lru

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache(8, time.Minute)
	ctx := context.Background()
	view := &domain.WindowView{Region: "US", Window: domain.SingleDay}

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", view))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, view, got)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2, time.Minute)
	ctx := context.Background()
	for i := range 3 {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), &domain.WindowView{}))
	}

	_, ok, _ := c.Get(ctx, "k0")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_Expires(t *testing.T) {
	c := NewCache(8, 20*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", &domain.WindowView{}))

	assert.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
