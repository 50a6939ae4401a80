// Package memcache is the in-process implementation of the domain Cache
// port, used when no Redis address is configured. Entries live for the
// process lifetime unless a TTL is given or Del is called.
package memcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"flex_reviews/internal/adapters/observability"
)

type entry struct {
	data    []byte
	expires time.Time // zero means never
}

type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
}

func New() *Cache {
	return &Cache{items: make(map[string]entry)}
}

func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && time.Now().After(e.expires)) {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.data, dst)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var exp time.Time
	if ttlSec > 0 {
		exp = time.Now().Add(time.Duration(ttlSec) * time.Second)
	}
	c.mu.Lock()
	c.items[key] = entry{data: b, expires: exp}
	c.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	observability.ObserveCache("memory", "del")
	return nil
}
