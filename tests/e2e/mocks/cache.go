package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/godilite/engagement-dashboard/pkg/cache"
)

// TrackingCache is an in-memory cache that counts calls per operation.
type TrackingCache struct {
	*cache.Memory

	mu          sync.Mutex
	GetCalls    int
	SetCalls    int
	DeleteCalls int
}

func NewTrackingCache() *TrackingCache {
	return &TrackingCache{Memory: cache.NewMemory()}
}

func (c *TrackingCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	c.GetCalls++
	c.mu.Unlock()
	return c.Memory.Get(ctx, key, dest)
}

func (c *TrackingCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	c.mu.Lock()
	c.SetCalls++
	c.mu.Unlock()
	return c.Memory.Set(ctx, key, value, exp)
}

func (c *TrackingCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	c.DeleteCalls++
	c.mu.Unlock()
	return c.Memory.DeletePrefix(ctx, prefix)
}

// Sets returns the Set count so far.
func (c *TrackingCache) Sets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.SetCalls
}
