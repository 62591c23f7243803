package jsoncodec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/serial/jsoncodec"
	"github.com/metacall/metacall-go/value"
)

func TestNameAndExtension(t *testing.T) {
	c := jsoncodec.New()
	assert.Equal(t, "json", c.Name())
	assert.Equal(t, ".json", c.Extension())
}

func TestRoundTripBool(t *testing.T) {
	c := jsoncodec.New()
	data, err := c.Serialize(value.CreateBool(true))
	require.NoError(t, err)
	assert.JSONEq(t, "true", string(data))

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	b, err := got.Bool()
	require.NoError(t, err)
	assert.True(t, b)
}

func TestRoundTripString(t *testing.T) {
	c := jsoncodec.New()
	data, err := c.Serialize(value.CreateString("hello"))
	require.NoError(t, err)

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	s, err := got.String()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestRoundTripNumericDecodesAsDouble(t *testing.T) {
	c := jsoncodec.New()
	data, err := c.Serialize(value.CreateInt(42))
	require.NoError(t, err)

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, value.Double, got.ID())
	d, err := got.Double()
	require.NoError(t, err)
	assert.Equal(t, 42.0, d)
}

func TestRoundTripBuffer(t *testing.T) {
	c := jsoncodec.New()
	data, err := c.Serialize(value.CreateBuffer([]byte{1, 2, 3}))
	require.NoError(t, err)

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, value.Buffer, got.ID())
	b, err := got.Buffer()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)
}

func TestRoundTripArray(t *testing.T) {
	c := jsoncodec.New()
	arr := value.CreateArray([]*value.Value{value.CreateInt(1), value.CreateString("two")})
	data, err := c.Serialize(arr)
	require.NoError(t, err)

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, value.Array, got.ID())
	elems, err := got.ToArray()
	require.NoError(t, err)
	require.Len(t, elems, 2)
	s, _ := elems[1].String()
	assert.Equal(t, "two", s)
}

func TestRoundTripStringKeyedMap(t *testing.T) {
	c := jsoncodec.New()
	m := value.CreateMap([]value.Pair{
		{Key: value.CreateString("a"), Value: value.CreateInt(1)},
		{Key: value.CreateString("b"), Value: value.CreateInt(2)},
	})
	data, err := c.Serialize(m)
	require.NoError(t, err)

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, value.Map, got.ID())
	pairs, err := got.ToMap()
	require.NoError(t, err)
	require.Len(t, pairs, 2)
}

func TestRoundTripNonStringKeyedMap(t *testing.T) {
	c := jsoncodec.New()
	m := value.CreateMap([]value.Pair{
		{Key: value.CreateInt(1), Value: value.CreateString("one")},
		{Key: value.CreateInt(2), Value: value.CreateString("two")},
	})
	data, err := c.Serialize(m)
	require.NoError(t, err)

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, value.Map, got.ID())
	pairs, err := got.ToMap()
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	k, _ := pairs[0].Key.Double()
	assert.Equal(t, 1.0, k)
}

func TestRoundTripException(t *testing.T) {
	c := jsoncodec.New()
	v := reflect.NewExceptionValue("ValueError", "bad input", 7, "trace")
	data, err := c.Serialize(v)
	require.NoError(t, err)

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, value.Exception, got.ID())
	ent, err := got.AsEntity()
	require.NoError(t, err)
	exc := ent.(*reflect.Exception)
	assert.Equal(t, "ValueError", exc.Label)
	assert.Equal(t, "bad input", exc.Message)
	assert.Equal(t, 7, exc.Code)
}

func TestRoundTripThrowable(t *testing.T) {
	c := jsoncodec.New()
	inner := reflect.NewExceptionValue("TypeError", "nope", 0, "")
	v := reflect.NewThrowableValue(inner)
	data, err := c.Serialize(v)
	require.NoError(t, err)

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, value.Throwable, got.ID())
	ent, err := got.AsEntity()
	require.NoError(t, err)
	th := ent.(*reflect.Throwable)
	require.Equal(t, value.Exception, th.Inner.ID())
	innerEnt, err := th.Inner.AsEntity()
	require.NoError(t, err)
	assert.Equal(t, "nope", innerEnt.(*reflect.Exception).Message)
}

func TestEntityTagsDecodeAsPlainStrings(t *testing.T) {
	c := jsoncodec.New()
	sig := reflect.NewSignature(0)
	fn := reflect.NewFunction("f", false, sig, nil, nil)

	data, err := c.Serialize(value.CreateEntity(fn))
	require.NoError(t, err)
	assert.JSONEq(t, `"[Function]"`, string(data))

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, value.String, got.ID())
	s, _ := got.String()
	assert.Equal(t, "[Function]", s)
}

func TestRoundTripNull(t *testing.T) {
	c := jsoncodec.New()
	data, err := c.Serialize(value.CreateNull())
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	got, err := c.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, value.Null, got.ID())
}
