package registrycache

import (
	"context"
	"time"
)

// Manager fronts a durable Catalog with a TTL'd Cache: Get consults the
// cache first and falls back to the catalog on a miss, repopulating the
// cache so the next lookup is fast again. Save writes through both.
type Manager struct {
	cache   Cache
	catalog Catalog
	ttl     time.Duration
}

// NewManager builds a Manager. ttl is applied to every cache entry Get
// repopulates after a catalog fallback.
func NewManager(cache Cache, catalog Catalog, ttl time.Duration) *Manager {
	return &Manager{cache: cache, catalog: catalog, ttl: ttl}
}

// Get returns the entry for key, trying the cache first and falling back
// to the catalog. A catalog hit is written back into the cache before
// returning. Returns nil, nil if neither holds the key.
func (m *Manager) Get(ctx context.Context, key string) (*Entry, error) {
	if e, err := m.cache.Get(ctx, key); err != nil {
		return nil, err
	} else if e != nil {
		return e, nil
	}
	e, err := m.catalog.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	if err := m.cache.Set(ctx, key, e, m.ttl); err != nil {
		return nil, err
	}
	return e, nil
}

// Save writes entry through to both the catalog and the cache.
func (m *Manager) Save(ctx context.Context, entry *Entry) error {
	if err := m.catalog.Save(ctx, entry); err != nil {
		return err
	}
	key := Key(entry.Tag, entry.Name)
	return m.cache.Set(ctx, key, entry, m.ttl)
}

// Invalidate removes entry from both the cache and the catalog.
func (m *Manager) Invalidate(ctx context.Context, key string) error {
	if err := m.cache.Delete(ctx, key); err != nil {
		return err
	}
	return m.catalog.Delete(ctx, key)
}
