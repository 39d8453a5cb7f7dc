package media

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type cacheEntry struct {
	value   any
	expires time.Time
}

// CachingCatalog wraps another Catalog with a TTL-based in-memory cache.
type CachingCatalog struct {
	base Catalog
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingCatalog returns a Catalog that caches lookups for the provided TTL.
func NewCachingCatalog(base Catalog, ttl time.Duration) *CachingCatalog {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingCatalog{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// Trending returns cached results when fresh, otherwise delegates and stores.
func (c *CachingCatalog) Trending(ctx context.Context) ([]Title, error) {
	return lookup(c, "trending", func() ([]Title, error) {
		return c.base.Trending(ctx)
	})
}

// Search caches per-query result lists.
func (c *CachingCatalog) Search(ctx context.Context, query string) ([]Title, error) {
	return lookup(c, "search:"+query, func() ([]Title, error) {
		return c.base.Search(ctx, query)
	})
}

// Details caches per-title metadata.
func (c *CachingCatalog) Details(ctx context.Context, id int, mediaType string) (Details, error) {
	return lookup(c, "details:"+mediaType+":"+strconv.Itoa(id), func() (Details, error) {
		return c.base.Details(ctx, id, mediaType)
	})
}

// Seasons caches per-show season lists.
func (c *CachingCatalog) Seasons(ctx context.Context, tvID int) ([]Season, error) {
	return lookup(c, "seasons:"+strconv.Itoa(tvID), func() ([]Season, error) {
		return c.base.Seasons(ctx, tvID)
	})
}

func lookup[T any](c *CachingCatalog, key string, fetch func() (T, error)) (T, error) {
	var zero T
	if c == nil || c.base == nil {
		return zero, ErrCatalogUnavailable
	}

	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		if value, ok := entry.value.(T); ok {
			return value, nil
		}
	}

	value, err := fetch()
	if err != nil {
		return zero, err
	}

	c.mu.Lock()
	c.items[key] = cacheEntry{value: value, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return value, nil
}

var _ Catalog = (*CachingCatalog)(nil)
