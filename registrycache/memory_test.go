package registrycache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metacall/metacall-go/registrycache"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := registrycache.NewMemoryCache()
	ctx := context.Background()
	entry := &registrycache.Entry{Tag: "rpc", Name: "mod", Inspect: []byte(`{}`)}

	require.NoError(t, c.Set(ctx, "rpc.mod", entry, time.Minute))

	got, err := c.Get(ctx, "rpc.mod")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mod", got.Name)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheMissReturnsNilNil(t *testing.T) {
	c := registrycache.NewMemoryCache()
	got, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCacheExpires(t *testing.T) {
	c := registrycache.NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", &registrycache.Entry{Tag: "rpc", Name: "k"}, -time.Second))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheDelete(t *testing.T) {
	c := registrycache.NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", &registrycache.Entry{Tag: "rpc", Name: "k"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}
