// Package catalog serves the database schema with a bounded-staleness cache.
//
// The schema is read fresh from the backend's metadata store and cached for
// at most the configured TTL; a served description is never older than that.
// The cache is safe for unsynchronized concurrent reads, which is all the
// request path ever does.
package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vizor-ai/vizor/internal/model"
)

// Describer reads the live schema. Implemented by storage.Store.
type Describer interface {
	Describe(ctx context.Context) (model.Schema, error)
}

// Catalog caches a Describer's schema with a TTL. TTL <= 0 disables caching
// and every Describe hits the metadata store.
type Catalog struct {
	src Describer
	ttl time.Duration
	now func() time.Time

	sf singleflight.Group

	mu      sync.RWMutex
	schema  model.Schema
	fetched time.Time
	valid   bool
}

// New creates a Catalog over src with the given TTL.
func New(src Describer, ttl time.Duration) *Catalog {
	return &Catalog{src: src, ttl: ttl, now: time.Now}
}

// Describe returns the schema, refreshing from the source when the cached
// copy is missing or older than the TTL. Refresh failures propagate as
// CatalogUnavailable from the source; a stale cache is never served past
// its TTL as a fallback.
func (c *Catalog) Describe(ctx context.Context) (model.Schema, error) {
	if c.ttl > 0 {
		c.mu.RLock()
		if c.valid && c.now().Sub(c.fetched) < c.ttl {
			schema := c.schema
			c.mu.RUnlock()
			return schema, nil
		}
		c.mu.RUnlock()
	}

	// Concurrent cache misses collapse into one metadata query; every waiter
	// gets the same result.
	v, err, _ := c.sf.Do("schema", func() (any, error) {
		schema, err := c.src.Describe(ctx)
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.schema = schema
			c.fetched = c.now()
			c.valid = true
			c.mu.Unlock()
		}
		return schema, nil
	})
	if err != nil {
		return model.Schema{}, err
	}
	return v.(model.Schema), nil
}

// Invalidate drops the cached schema so the next Describe reads fresh.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
