package loader_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/metacall/metacall-go/loader"
	"github.com/metacall/metacall-go/loader/loadertest"
	"github.com/metacall/metacall-go/telemetry"
)

func TestRegistryLazyInitAndReuse(t *testing.T) {
	r := loader.NewRegistry(rate.Inf, 1, telemetry.Noop())
	fake := loadertest.New()
	fake.Register(addModule())
	r.RegisterFactory("py", func() loader.Impl { return fake })

	l1, err := r.Loader(context.Background(), "py", nil)
	require.NoError(t, err)
	l2, err := r.Loader(context.Background(), "py", nil)
	require.NoError(t, err)
	assert.Same(t, l1, l2)
}

func TestRegistryUnknownTagErrors(t *testing.T) {
	r := loader.NewRegistry(rate.Inf, 1, telemetry.Noop())
	_, err := r.Loader(context.Background(), "nope", nil)
	assert.Error(t, err)
}

// orderedFake appends its tag to order when the backend's Destroy runs.
type orderedFake struct {
	*loadertest.Fake
	tag   string
	order *[]string
}

func (f orderedFake) Destroy(context.Context) error {
	*f.order = append(*f.order, f.tag)
	return nil
}

func TestRegistryDestroyAllReverseOrder(t *testing.T) {
	r := loader.NewRegistry(rate.Inf, 1, telemetry.Noop())
	var destroyed []string
	r.RegisterFactory("a", func() loader.Impl { return orderedFake{loadertest.New(), "a", &destroyed} })
	r.RegisterFactory("b", func() loader.Impl { return orderedFake{loadertest.New(), "b", &destroyed} })

	_, err := r.Loader(context.Background(), "a", nil)
	require.NoError(t, err)
	_, err = r.Loader(context.Background(), "b", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, r.Tags())
	require.NoError(t, r.DestroyAll(context.Background()))
	assert.Equal(t, []string{"b", "a"}, destroyed)
	assert.Empty(t, r.Tags())
}
