package iam

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	versions map[int64]int
	calls    int
	during   func()
}

func (l *countingLoader) load(ctx context.Context, id int64) (int, error) {
	l.calls++
	if l.during != nil {
		l.during()
	}
	v, ok := l.versions[id]
	if !ok {
		return 0, errors.New("missing")
	}
	return v, nil
}

func TestVersionCache_Disabled(t *testing.T) {
	loader := &countingLoader{versions: map[int64]int{1: 3}}
	cache := NewVersionCache(16, 0, loader.load)
	assert.False(t, cache.Enabled())

	for i := 0; i < 3; i++ {
		v, err := cache.Current(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	}
	assert.Equal(t, 3, loader.calls)
	cache.Invalidate(1)
	assert.Zero(t, cache.Len())
}

func TestVersionCache_CachesAndInvalidates(t *testing.T) {
	loader := &countingLoader{versions: map[int64]int{1: 3}}
	cache := NewVersionCache(16, time.Minute, loader.load)
	require.True(t, cache.Enabled())
	ctx := context.Background()

	v, err := cache.Current(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	_, _ = cache.Current(ctx, 1)
	assert.Equal(t, 1, loader.calls)

	loader.versions[1] = 4
	cache.Invalidate(1)
	v, err = cache.Current(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, 2, loader.calls)

	_, err = cache.Current(ctx, 2)
	assert.Error(t, err)
	assert.Equal(t, 1, cache.Len(), "errors are not cached")
}

func TestVersionCache_RacingInvalidateIsNotCached(t *testing.T) {
	loader := &countingLoader{versions: map[int64]int{1: 3}}
	cache := NewVersionCache(16, time.Minute, loader.load)
	loader.during = func() { cache.Invalidate(1) }

	_, err := cache.Current(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, cache.Len())
}

func TestVersionCache_ConcurrentInvalidateLeavesNoStaleEntry(t *testing.T) {
	var stored atomic.Int64
	stored.Store(1)
	cache := NewVersionCache(16, time.Minute, func(ctx context.Context, id int64) (int, error) {
		return int(stored.Load()), nil
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_, _ = cache.Current(ctx, 1)
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		stored.Add(1)
		cache.Invalidate(1)
	}
	close(stop)
	wg.Wait()

	v, err := cache.Current(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int(stored.Load()), v)
}
