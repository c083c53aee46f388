package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"
)

// Cache is the read-side cache for registry documents. Entries carry a TTL
// but the service evicts explicitly on every write, so the TTL is only a
// backstop.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	Delete(ctx context.Context, key string)
	GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func() (any, error)) (any, error)
}

type Config struct {
	MaxCost     int64
	NumCounters int64
	BufferItems int64
}

func DefaultConfig() *Config {
	return &Config{
		MaxCost:     1 << 26, // 64MB; registry documents are small
		NumCounters: 1e6,
		BufferItems: 64,
	}
}

// MemoryCache is the in-process implementation backed by ristretto, with
// singleflight on GetOrSet so concurrent readers of a cold key trigger a
// single load.
type MemoryCache struct {
	store       *ristretto.Cache
	singleGroup singleflight.Group
}

var _ Cache = (*MemoryCache)(nil)

func New(config *Config) (*MemoryCache, error) {
	if config == nil {
		config = DefaultConfig()
	}

	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxCost,
		BufferItems: config.BufferItems,
	})
	if err != nil {
		return nil, err
	}

	cache := &MemoryCache{store: store}
	cache.store.Wait()

	return cache, nil
}

func (c *MemoryCache) Get(ctx context.Context, key string) (any, bool) {
	select {
	case <-ctx.Done():
		return nil, false
	default:
	}
	return c.store.Get(key)
}

func (c *MemoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}
	return c.store.SetWithTTL(key, value, 1, ttl)
}

func (c *MemoryCache) Delete(ctx context.Context, key string) {
	select {
	case <-ctx.Done():
		return
	default:
	}
	c.store.Del(key)
	// SetWithTTL is buffered; make sure a follow-up Get cannot resurrect
	// the old value mid-flight
	c.store.Wait()
}

func (c *MemoryCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func() (any, error)) (any, error) {
	if value, found := c.Get(ctx, key); found {
		return value, nil
	}

	value, err, _ := c.singleGroup.Do(key, func() (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if value, found := c.Get(ctx, key); found {
			return value, nil
		}

		value, err := loader()
		if err != nil {
			return nil, err
		}

		c.Set(ctx, key, value, ttl)
		c.store.Wait()
		return value, nil
	})

	return value, err
}
