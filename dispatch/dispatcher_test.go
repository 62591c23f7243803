package dispatch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/metacall/metacall-go/dispatch"
	"github.com/metacall/metacall-go/loader"
	"github.com/metacall/metacall-go/loader/loadertest"
	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/telemetry"
	"github.com/metacall/metacall-go/value"
)

func newDispatcher(t *testing.T, tag string, fake *loadertest.Fake) (*dispatch.Dispatcher, dispatch.CallerToken) {
	t.Helper()
	reg := loader.NewRegistry(rate.Inf, 8, telemetry.Noop())
	reg.RegisterFactory(tag, func() loader.Impl { return fake })
	d := dispatch.New(reg, telemetry.Noop())
	return d, d.NewCallerToken()
}

// TestScenarioLoadAndCallPureFunction loads a pure two-argument function
// and calls it, expecting the correctly-summed result back.
func TestScenarioLoadAndCallPureFunction(t *testing.T) {
	sig := reflect.NewSignature(2)
	sig.Set(0, "a", nil)
	sig.Set(1, "b", nil)
	fake := loadertest.New()
	fake.Register(&loadertest.Module{
		Name: "add.py",
		Funcs: []loadertest.ModuleFunc{{
			Name:      "add",
			Signature: sig,
			Invoke: func(args []*value.Value) (*value.Value, error) {
				a, _ := args[0].Int()
				b, _ := args[1].Int()
				return value.CreateInt(a + b), nil
			},
		}},
	})
	d, tok := newDispatcher(t, "py", fake)
	ctx := context.Background()

	_, err := d.LoadFromFile(ctx, tok, "py", "", []string{"add.py"}, loader.Public)
	require.NoError(t, err)

	result, err := d.CallV(ctx, tok, "add", []*value.Value{value.CreateInt(2), value.CreateInt(3)})
	require.NoError(t, err)
	assert.Equal(t, value.Int, result.ID())
	sum, _ := result.Int()
	assert.Equal(t, int32(5), sum)
}

// TestScenarioAsyncCallViaSyncDispatcher calls an Asynchronous function
// through CallV, which must transparently await its future and return
// the settled result rather than a pending Future value.
func TestScenarioAsyncCallViaSyncDispatcher(t *testing.T) {
	fake := loadertest.New()
	fake.Register(&loadertest.Module{
		Name: "hello.js",
		Funcs: []loadertest.ModuleFunc{{
			Name:      "hello",
			Async:     true,
			Signature: reflect.NewSignature(0),
			Await: func(args []*value.Value, resolve, reject func(*value.Value)) (*reflect.Future, error) {
				fut := reflect.NewFuture()
				go func() { _ = fut.Resolve(value.CreateString("world")) }()
				fut.OnSettle(resolve, reject)
				return fut, nil
			},
		}},
	})
	d, tok := newDispatcher(t, "node", fake)
	ctx := context.Background()

	_, err := d.LoadFromFile(ctx, tok, "node", "", []string{"hello.js"}, loader.Public)
	require.NoError(t, err)

	result, err := d.CallV(ctx, tok, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, value.String, result.ID())
	s, _ := result.String()
	assert.Equal(t, "world", s)
}

// TestScenarioThrowablePropagation calls a function whose backend raises
// an error, expecting a Throwable value back rather than a Go error.
func TestScenarioThrowablePropagation(t *testing.T) {
	fake := loadertest.New()
	fake.Register(&loadertest.Module{
		Name: "boom.py",
		Funcs: []loadertest.ModuleFunc{{
			Name:      "boom",
			Signature: reflect.NewSignature(0),
			Invoke: func(args []*value.Value) (*value.Value, error) {
				return reflect.NewThrowableFromException(&reflect.Exception{Label: "ValueError", Message: "x"}), nil
			},
		}},
	})
	d, tok := newDispatcher(t, "py", fake)
	ctx := context.Background()

	_, err := d.LoadFromFile(ctx, tok, "py", "", []string{"boom.py"}, loader.Public)
	require.NoError(t, err)

	result, err := d.CallV(ctx, tok, "boom", nil)
	require.NoError(t, err)
	require.Equal(t, value.Throwable, result.ID())

	ent, err := result.AsEntity()
	require.NoError(t, err)
	th := ent.(*reflect.Throwable)
	excEnt, err := th.Inner.AsEntity()
	require.NoError(t, err)
	exc := excEnt.(*reflect.Exception)
	assert.Equal(t, "x", exc.Message)
	assert.Equal(t, "ValueError", exc.Label)
}

// TestScenarioHandleIsolation loads the same module name under two
// distinct handles and confirms a symbol defined in one handle's scope
// is not visible when resolving against the other.
func TestScenarioHandleIsolation(t *testing.T) {
	sig := reflect.NewSignature(0)
	makeModule := func(name string, result int32) *loadertest.Module {
		return &loadertest.Module{
			Name: name,
			Funcs: []loadertest.ModuleFunc{{
				Name:      "value",
				Signature: sig,
				Invoke: func(args []*value.Value) (*value.Value, error) {
					return value.CreateInt(result), nil
				},
			}},
		}
	}
	fake := loadertest.New()
	fake.Register(makeModule("first.py", 1))
	fake.Register(makeModule("second.py", 2))
	d, tok := newDispatcher(t, "py", fake)
	ctx := context.Background()

	h1, err := d.LoadFromFile(ctx, tok, "py", "first", []string{"first.py"}, loader.Public)
	require.NoError(t, err)
	h2, err := d.LoadFromFile(ctx, tok, "py", "second", []string{"second.py"}, loader.Public)
	require.NoError(t, err)
	assert.NotSame(t, h1, h2)

	r1, err := d.CallV(ctx, tok, "first.value", nil)
	require.NoError(t, err)
	i1, _ := r1.Int()
	assert.Equal(t, int32(1), i1)

	reg, _ := d.LastError(tok) // no error expected from the calls above
	assert.NoError(t, reg)

	r2, err := d.CallV(ctx, tok, "second.value", nil)
	require.NoError(t, err)
	i2, _ := r2.Int()
	assert.Equal(t, int32(2), i2)
}

func TestCallVUnknownSymbolReturnsError(t *testing.T) {
	d, tok := newDispatcher(t, "py", loadertest.New())
	_, err := d.CallV(context.Background(), tok, "missing", nil)
	assert.ErrorIs(t, err, dispatch.ErrSymbolNotFound)
}

func TestLastErrorRecordsFatalLoadError(t *testing.T) {
	d, tok := newDispatcher(t, "py", loadertest.New())
	_, err := d.LoadFromFile(context.Background(), tok, "py", "", []string{"missing.py"}, loader.Public)
	require.Error(t, err)

	last, ok := d.LastError(tok)
	require.True(t, ok)
	assert.Equal(t, err, last)
}
