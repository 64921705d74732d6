// Package localcache is the in-process fallback for the hotel read cache.
package localcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"

	"hotel_booking/internal/adapters/observability"
)

// Cache keeps JSON-encoded copies so callers never share mutable values
// with the cache.
type Cache struct{ c *cache.Cache }

func New(defaultTTL time.Duration) *Cache {
	return &Cache{c: cache.New(defaultTTL, 2*defaultTTL)}
}

func (l *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := l.c.Get(key)
	if !ok {
		observability.ObserveCache("local", "miss")
		return false, nil
	}
	if err := json.Unmarshal(v.([]byte), dst); err != nil {
		return false, err
	}
	observability.ObserveCache("local", "hit")
	return true, nil
}

func (l *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("local", "set")
	l.c.Set(key, b, time.Duration(ttlSec)*time.Second)
	return nil
}

func (l *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("local", "del")
	l.c.Delete(key)
	return nil
}
