package jsoncodec_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/metacall/metacall-go/dispatch"
	"github.com/metacall/metacall-go/loader"
	"github.com/metacall/metacall-go/loader/loadertest"
	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/serial/jsoncodec"
	"github.com/metacall/metacall-go/telemetry"
	"github.com/metacall/metacall-go/value"
)

// addModule mirrors the fixture loader/loader_test.go uses: one handle
// exposing a single two-argument "add" function.
func addModule() *loadertest.Module {
	sig := reflect.NewSignature(2)
	sig.Set(0, "a", nil)
	sig.Set(1, "b", nil)
	return &loadertest.Module{
		Name: "addmod",
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

// TestInspectSerializeDeserializeRoundTrips exercises a dispatcher end to
// end: load a handle, call Inspect to obtain the introspection document
// and deserialize it through the JSON codec into a Map, then run the
// "add" call's result through the codec and confirm it comes back with
// the same number (as a double, the only JSON number kind).
func TestInspectSerializeDeserializeRoundTrips(t *testing.T) {
	fake := loadertest.New()
	fake.Register(addModule())

	reg := loader.NewRegistry(rate.Inf, 1, telemetry.Noop())
	reg.RegisterFactory("py", func() loader.Impl { return fake })

	d := dispatch.New(reg, telemetry.Noop())
	tok := d.NewCallerToken()
	_, err := d.LoadFromFile(context.Background(), tok, "py", "addmod", []string{"addmod"}, loader.Public)
	require.NoError(t, err)

	inspectDoc, err := d.Inspect()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(inspectDoc, &doc))
	pyHandles, ok := doc["py"].([]any)
	require.True(t, ok)
	require.Len(t, pyHandles, 1)

	codec := jsoncodec.New()
	inspected, err := codec.Deserialize(inspectDoc)
	require.NoError(t, err)
	assert.Equal(t, value.Map, inspected.ID())

	result, err := d.CallV(context.Background(), tok, "addmod.add", []*value.Value{value.CreateInt(2), value.CreateInt(3)})
	require.NoError(t, err)

	wire, err := codec.Serialize(result)
	require.NoError(t, err)

	decoded, err := codec.Deserialize(wire)
	require.NoError(t, err)

	original, err := result.Int()
	require.NoError(t, err)
	roundTripped, err := decoded.Double()
	require.NoError(t, err)
	assert.Equal(t, float64(original), roundTripped)
}
