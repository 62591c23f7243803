package registrycache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metacall/metacall-go/registrycache"
)

// fakeCatalog is an in-memory Catalog stand-in for Manager tests, since a
// real Catalog needs MongoDB (see mongo_integration_test.go).
type fakeCatalog struct {
	mu      sync.Mutex
	entries map[string]*registrycache.Entry
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{entries: make(map[string]*registrycache.Entry)}
}

func (f *fakeCatalog) Save(_ context.Context, entry *registrycache.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[registrycache.Key(entry.Tag, entry.Name)] = entry
	return nil
}

func (f *fakeCatalog) Load(_ context.Context, key string) (*registrycache.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[key], nil
}

func (f *fakeCatalog) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeCatalog) List(_ context.Context, tag string) ([]*registrycache.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*registrycache.Entry
	for _, e := range f.entries {
		if tag == "" || e.Tag == tag {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestManagerGetFallsBackToCatalogAndRepopulatesCache(t *testing.T) {
	cache := registrycache.NewMemoryCache()
	catalog := newFakeCatalog()
	mgr := registrycache.NewManager(cache, catalog, time.Minute)
	ctx := context.Background()

	require.NoError(t, catalog.Save(ctx, &registrycache.Entry{Tag: "rpc", Name: "mod", Inspect: []byte(`{}`)}))

	got, err := mgr.Get(ctx, registrycache.Key("rpc", "mod"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mod", got.Name)
	assert.Equal(t, 1, cache.Len())
}

func TestManagerGetMissReturnsNilNil(t *testing.T) {
	mgr := registrycache.NewManager(registrycache.NewMemoryCache(), newFakeCatalog(), time.Minute)
	got, err := mgr.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManagerSaveWritesThroughBothStores(t *testing.T) {
	cache := registrycache.NewMemoryCache()
	catalog := newFakeCatalog()
	mgr := registrycache.NewManager(cache, catalog, time.Minute)
	ctx := context.Background()

	entry := &registrycache.Entry{Tag: "rpc", Name: "mod"}
	require.NoError(t, mgr.Save(ctx, entry))

	cached, err := cache.Get(ctx, registrycache.Key("rpc", "mod"))
	require.NoError(t, err)
	assert.NotNil(t, cached)

	catalogued, err := catalog.Load(ctx, registrycache.Key("rpc", "mod"))
	require.NoError(t, err)
	assert.NotNil(t, catalogued)
}

func TestManagerInvalidateRemovesFromBothStores(t *testing.T) {
	cache := registrycache.NewMemoryCache()
	catalog := newFakeCatalog()
	mgr := registrycache.NewManager(cache, catalog, time.Minute)
	ctx := context.Background()

	entry := &registrycache.Entry{Tag: "rpc", Name: "mod"}
	require.NoError(t, mgr.Save(ctx, entry))
	require.NoError(t, mgr.Invalidate(ctx, registrycache.Key("rpc", "mod")))

	got, err := mgr.Get(ctx, registrycache.Key("rpc", "mod"))
	require.NoError(t, err)
	assert.Nil(t, got)
}
