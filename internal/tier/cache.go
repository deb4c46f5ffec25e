// internal/tier/cache.go
//
// Cached policy lookup.  Tier rows change on operator action, roughly
// never, yet every quota check reads one; the LRU keeps the handful of
// live tiers in process and re-reads a row once its age passes the TTL.
package tier

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sitelet/sitelet/internal/cache"
)

type cached struct {
	pol     *Policy
	fetched time.Time
}

// Cache wraps ByTier with an in-process TTL'd LRU.
type Cache struct {
	db  *sqlx.DB
	lru *cache.LRU[string, cached]
	ttl time.Duration
}

// NewCache sizes the LRU for the realistic tier count.
func NewCache(db *sqlx.DB, ttl time.Duration) *Cache {
	return &Cache{db: db, lru: cache.NewLRU[string, cached](32), ttl: ttl}
}

// ByTier returns the policy for a tier, from cache when fresh.
func (c *Cache) ByTier(ctx context.Context, tier string) (*Policy, error) {
	if e, ok := c.lru.Get(tier); ok && time.Since(e.fetched) < c.ttl {
		return e.pol, nil
	}
	pol, err := ByTier(ctx, c.db, tier)
	if err != nil {
		return nil, err
	}
	c.lru.Add(tier, cached{pol: pol, fetched: time.Now()})
	return pol, nil
}
