package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// RistrettoSessionCache keeps values by session id with a per-entry TTL. Every
// entry costs 1, so maxItems is the number of sessions held. The exit hook
// runs once for every value that leaves the cache, whether it was deleted,
// evicted, expired or rejected on admission.
type RistrettoSessionCache struct {
	cache *ristretto.Cache
}

func NewSessionCache(maxItems int64, onExit func(value any)) (*RistrettoSessionCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        10 * maxItems,
		MaxCost:            maxItems,
		BufferItems:        64,
		IgnoreInternalCost: true,
		OnExit:             onExit,
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache failed: %w", err)
	}
	return &RistrettoSessionCache{cache: c}, nil
}

func (c *RistrettoSessionCache) Get(id string) (any, bool) {
	return c.cache.Get(id)
}

// Set stores value and waits until the write is applied, so a following Get
// sees it unless admission rejected it.
func (c *RistrettoSessionCache) Set(id string, value any, ttl time.Duration) bool {
	ok := c.cache.SetWithTTL(id, value, 1, ttl)
	c.cache.Wait()
	return ok
}

func (c *RistrettoSessionCache) Del(id string) {
	c.cache.Del(id)
}

func (c *RistrettoSessionCache) Close() { c.cache.Close() }
