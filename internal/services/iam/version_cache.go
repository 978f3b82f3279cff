package iam

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// VersionLoader reads the stored version of an identity.
type VersionLoader func(ctx context.Context, id int64) (int, error)

// VersionCache remembers identity versions for a short TTL so the
// consistency filter can skip the store on most requests. Invalidate is
// called synchronously by every mutation that bumps a version, and a load
// that raced with an Invalidate is not cached.
//
// A disabled cache forwards every call to the loader.
type VersionCache struct {
	lru   *expirable.LRU[int64, int]
	load  VersionLoader
	epoch atomic.Uint64

	// mu orders the epoch check and Add in Current against Invalidate.
	mu sync.Mutex
}

// NewVersionCache returns a cache of size entries living ttl. A zero ttl
// disables caching.
func NewVersionCache(size int, ttl time.Duration, load VersionLoader) *VersionCache {
	c := &VersionCache{load: load}
	if ttl > 0 {
		if size <= 0 {
			size = 1024
		}
		c.lru = expirable.NewLRU[int64, int](size, nil, ttl)
	}
	return c
}

// Enabled reports whether results are cached.
func (c *VersionCache) Enabled() bool {
	return c != nil && c.lru != nil
}

// Current returns the version of id from the cache or the loader.
func (c *VersionCache) Current(ctx context.Context, id int64) (int, error) {
	if !c.Enabled() {
		return c.load(ctx, id)
	}
	if v, ok := c.lru.Get(id); ok {
		return v, nil
	}

	before := c.epoch.Load()
	v, err := c.load(ctx, id)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	if c.epoch.Load() == before {
		c.lru.Add(id, v)
	}
	c.mu.Unlock()
	return v, nil
}

// Invalidate drops the cached version of id.
func (c *VersionCache) Invalidate(id int64) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch.Add(1)
	c.lru.Remove(id)
}

// Len returns the number of cached entries.
func (c *VersionCache) Len() int {
	if !c.Enabled() {
		return 0
	}
	return c.lru.Len()
}
