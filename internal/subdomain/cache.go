// internal/subdomain/cache.go
//
// Cache-aside resolution layer over Redis.
//
// Context
// -------
// Every public request resolves its subdomain through this cache before
// touching the registry.  Values are small JSON tuples bound by a TTL;
// mutations to the backing record invalidate (delete, never update in
// place) before the write is considered complete.  The cache is not the
// source of truth: a stale read within the TTL window is acceptable for
// anonymous resolution but never for ownership checks, which go to the
// persistent record.
package subdomain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sitelet/sitelet/internal/config"
	"github.com/sitelet/sitelet/internal/errs"
)

// Entry is the cached resolution tuple.
type Entry struct {
	OwnerID     uint64 `json:"owner"`
	NamespaceID string `json:"namespaceId"`
	Visibility  string `json:"visibility"`
}

// Cache wraps the Redis client with the platform TTL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// OpenCache connects and pings so boot fails fast on a bad address.
func OpenCache(ctx context.Context, cfg config.Redis) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errs.Configuration.New("redis ping failed: %v", err)
	}
	return &Cache{rdb: rdb, ttl: cfg.TTL}, nil
}

// NewCacheWith wires an existing client, used by tests with miniredis.
func NewCacheWith(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func cacheKey(name string) string { return "subdomain:" + name }

// Get returns the cached entry, or (nil, nil) on a miss.
func (c *Cache) Get(ctx context.Context, name string) (*Entry, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A corrupt entry is treated as a miss; the registry read will
		// repopulate it.
		return nil, nil
	}
	return &e, nil
}

// Set stores an entry under the platform TTL.  Concurrent writers can
// interleave; last writer wins, which is fine because the registry row
// stays authoritative.
func (c *Cache) Set(ctx context.Context, name string, e *Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(name), raw, c.ttl).Err()
}

// Invalidate deletes the entry.  Deleting a missing key is a no-op.
func (c *Cache) Invalidate(ctx context.Context, name string) error {
	return c.rdb.Del(ctx, cacheKey(name)).Err()
}
