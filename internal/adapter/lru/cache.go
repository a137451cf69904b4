// Package lru is the in-process window view cache used when no Redis server
// is configured.
package lru

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

// Cache implements aggregate.ViewCache with a size-bounded, TTL-expiring LRU.
// It never returns an error.
type Cache struct {
	lru *expirable.LRU[string, *domain.WindowView]
}

// NewCache creates a cache holding at most size views for ttl each.
func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, *domain.WindowView](size, nil, ttl)}
}

func (c *Cache) Get(_ context.Context, key string) (*domain.WindowView, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

func (c *Cache) Set(_ context.Context, key string, view *domain.WindowView) error {
	c.lru.Add(key, view)
	return nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return c.lru.Len() }
