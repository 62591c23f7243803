package reflect_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/value"
)

func TestFutureResolveFiresOnSettleOnce(t *testing.T) {
	fut := reflect.NewFuture()

	var got *value.Value
	fired := 0
	fut.OnSettle(func(v *value.Value) {
		got = v
		fired++
	}, func(*value.Value) {
		t.Fatal("reject should not fire")
	})

	require.NoError(t, fut.Resolve(value.CreateInt(7)))
	assert.Equal(t, 1, fired)
	i, err := got.Int()
	require.NoError(t, err)
	assert.Equal(t, int32(7), i)

	assert.ErrorIs(t, fut.Resolve(value.CreateInt(8)), reflect.ErrFutureAlreadySettled)
}

func TestFutureOnSettleAfterResolveFiresImmediately(t *testing.T) {
	fut := reflect.NewFuture()
	require.NoError(t, fut.Resolve(value.CreateInt(1)))

	fired := false
	fut.OnSettle(func(*value.Value) { fired = true }, nil)
	assert.True(t, fired)
}

func TestFutureWaitBlocksUntilSettled(t *testing.T) {
	fut := reflect.NewFuture()
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = fut.Resolve(value.CreateString("done"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, rejected, err := fut.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, rejected)
	s, _ := result.String()
	assert.Equal(t, "done", s)
}

func TestFutureWaitContextCancelled(t *testing.T) {
	fut := reflect.NewFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := fut.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFulfilledFutureIsAlreadySettled(t *testing.T) {
	fut := reflect.NewFulfilledFuture(value.CreateInt(42))
	assert.Equal(t, reflect.Fulfilled, fut.State())

	ctx := context.Background()
	result, rejected, err := fut.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, rejected)
	i, _ := result.Int()
	assert.Equal(t, int32(42), i)
}
