package metacall_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metacall/metacall-go/config"
	"github.com/metacall/metacall-go/loader"
	"github.com/metacall/metacall-go/loader/loadertest"
	"github.com/metacall/metacall-go/metacall"
	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/value"
)

func addModule(name string) *loadertest.Module {
	sig := reflect.NewSignature(2)
	sig.Set(0, "a", nil)
	sig.Set(1, "b", nil)
	return &loadertest.Module{
		Name: name,
		Funcs: []loadertest.ModuleFunc{{
			Name:      "add",
			Signature: sig,
			Invoke: func(args []*value.Value) (*value.Value, error) {
				a, _ := args[0].Int()
				b, _ := args[1].Int()
				return value.CreateInt(a + b), nil
			},
		}},
	}
}

func TestRuntimeLoadAndCallRoundTrip(t *testing.T) {
	rt, err := metacall.New(&config.Config{}, nil)
	require.NoError(t, err)

	fake := loadertest.New()
	fake.Register(addModule("addmod"))
	rt.RegisterLoader("py", func() loader.Impl { return fake })

	ctx := context.Background()
	tok := rt.NewCallerToken()

	_, err = rt.LoadFromFile(ctx, tok, "py", "addmod", []string{"addmod"}, metacall.Public)
	require.NoError(t, err)

	result, err := rt.CallV(ctx, tok, "addmod.add", []*value.Value{metacall.ValueCreateInt(2), metacall.ValueCreateInt(3)})
	require.NoError(t, err)
	sum, err := result.Int()
	require.NoError(t, err)
	assert.Equal(t, int32(5), sum)

	doc, err := rt.Inspect()
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.Contains(t, parsed, "py")

	require.NoError(t, rt.Destroy(ctx))
}

func TestRuntimeLoadFailureRecordsLastError(t *testing.T) {
	rt, err := metacall.New(&config.Config{}, nil)
	require.NoError(t, err)

	fake := loadertest.New()
	rt.RegisterLoader("py", func() loader.Impl { return fake })

	ctx := context.Background()
	tok := rt.NewCallerToken()

	_, err = rt.LoadFromFile(ctx, tok, "py", "missing", []string{"missing.py"}, metacall.Public)
	require.Error(t, err)

	last, ok := rt.LastError(tok)
	require.True(t, ok)
	assert.Equal(t, err, last)
}

func TestValueConstructorsWrapValuePackage(t *testing.T) {
	b := metacall.ValueCreateBool(true)
	assert.Equal(t, value.Bool, b.ID())

	s := metacall.ValueCreateString("hi")
	str, err := s.String()
	require.NoError(t, err)
	assert.Equal(t, "hi", str)

	arr := metacall.ValueCreateArray([]*value.Value{metacall.ValueCreateInt(1), metacall.ValueCreateInt(2)})
	elems, err := arr.ToArray()
	require.NoError(t, err)
	assert.Len(t, elems, 2)
}

func TestExitCodeString(t *testing.T) {
	assert.Equal(t, "ok", metacall.ExitOK.String())
	assert.Equal(t, "dispatch_failure", metacall.ExitDispatchFailure.String())
}
