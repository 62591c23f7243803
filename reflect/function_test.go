package reflect_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/value"
)

func syncSignature() *reflect.Signature {
	sig := reflect.NewSignature(2)
	sig.Set(0, "a", nil)
	sig.Set(1, "b", nil)
	return sig
}

func TestFunctionSyncCall(t *testing.T) {
	vtable := &reflect.FunctionVTable{
		Invoke: func(impl any, args []*value.Value) (*value.Value, error) {
			a, _ := args[0].Int()
			b, _ := args[1].Int()
			return value.CreateInt(a + b), nil
		},
	}
	fn := reflect.NewFunction("add", false, syncSignature(), nil, vtable)

	result, err := fn.Call(context.Background(), []*value.Value{value.CreateInt(2), value.CreateInt(3)})
	require.NoError(t, err)
	sum, _ := result.Int()
	assert.Equal(t, int32(5), sum)
}

func TestFunctionAsyncCallBlocksUntilSettled(t *testing.T) {
	vtable := &reflect.FunctionVTable{
		Await: func(impl any, args []*value.Value, resolve, reject func(*value.Value)) (*reflect.Future, error) {
			fut := reflect.NewFuture()
			go func() {
				_ = fut.Resolve(value.CreateString("async-result"))
			}()
			fut.OnSettle(resolve, reject)
			return fut, nil
		},
	}
	fn := reflect.NewFunction("fetch", true, reflect.NewSignature(0), nil, vtable)

	result, err := fn.Call(context.Background(), nil)
	require.NoError(t, err)
	s, _ := result.String()
	assert.Equal(t, "async-result", s)
}

func TestFunctionAwaitOverSyncProducesFulfilledFuture(t *testing.T) {
	vtable := &reflect.FunctionVTable{
		Invoke: func(impl any, args []*value.Value) (*value.Value, error) {
			return value.CreateInt(9), nil
		},
	}
	fn := reflect.NewFunction("sum", false, reflect.NewSignature(0), nil, vtable)

	var resolved *value.Value
	fut, err := fn.Await(nil, func(v *value.Value) { resolved = v }, nil)
	require.NoError(t, err)
	assert.Equal(t, reflect.Fulfilled, fut.State())
	i, _ := resolved.Int()
	assert.Equal(t, int32(9), i)
}

func TestFunctionRetainReleaseDestroysOnLastRelease(t *testing.T) {
	destroyed := false
	vtable := &reflect.FunctionVTable{
		Destroy: func(impl any) { destroyed = true },
	}
	fn := reflect.NewFunction("noop", false, reflect.NewSignature(0), nil, vtable)
	fn.Retain()
	fn.Release()
	assert.False(t, destroyed)
	fn.Release()
	assert.True(t, destroyed)
}

func TestFunctionCallErrorPropagates(t *testing.T) {
	vtable := &reflect.FunctionVTable{
		Invoke: func(impl any, args []*value.Value) (*value.Value, error) {
			return nil, assert.AnError
		},
	}
	fn := reflect.NewFunction("fails", false, reflect.NewSignature(0), nil, vtable)

	_, err := fn.Call(context.Background(), nil)
	assert.ErrorIs(t, err, assert.AnError)
}
