package value_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/metacall/metacall-go/value"
)

// TestScalarRoundTripProperty checks that for every value v and every
// scalar id whose id matches a given scalar variant, converting back
// through that variant's accessor returns the original value unchanged.
func TestScalarRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("int create/to round-trips", prop.ForAll(
		func(n int32) bool {
			v := value.CreateInt(n)
			defer value.Destroy(v)
			got, err := v.Int()
			return err == nil && got == n
		},
		gen.Int32(),
	))

	properties.Property("string create/to round-trips", prop.ForAll(
		func(s string) bool {
			v := value.CreateString(s)
			defer value.Destroy(v)
			got, err := v.String()
			return err == nil && got == s
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestCompositeCountMatchesAccessorLength checks that for every composite
// value, Count equals the length of the slice its matching accessor returns.
func TestCompositeCountMatchesAccessorLength(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("array count matches ToArray length", prop.ForAll(
		func(n uint8) bool {
			elems := make([]*value.Value, n)
			for i := range elems {
				elems[i] = value.CreateInt(int32(i))
			}
			arr := value.CreateArray(elems)
			defer value.Destroy(arr)
			got, err := arr.ToArray()
			return err == nil && len(got) == int(n) && arr.Count() == int(n)
		},
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

// TestRefcountBalancedSequenceDestroysExactlyOnce checks that any sequence
// of Copy/Destroy calls on a value that ends balanced destroys the
// underlying entity exactly once.
func TestRefcountBalancedSequenceDestroysExactlyOnce(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("balanced copy/destroy sequence leaves refcount at zero exactly once", prop.ForAll(
		func(extraCopies uint8) bool {
			v := value.CreateInt(1)
			for i := uint8(0); i < extraCopies; i++ {
				value.Copy(v)
			}
			for i := uint8(0); i < extraCopies; i++ {
				value.Destroy(v)
			}
			before := v.Refs()
			value.Destroy(v)
			return before == 1 && v.Refs() == 0
		},
		gen.UInt8Range(0, 32),
	))

	properties.TestingRun(t)
}

// TestCastRoundTripThroughDoubleAndBack validates the numeric widen/narrow
// rules stay internally consistent for values that fit
// exactly in a double's integer range.
func TestCastRoundTripThroughDoubleAndBack(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("int -> double -> int round-trips for exactly representable values", prop.ForAll(
		func(n int32) bool {
			v := value.CreateInt(n)
			widened, err := value.Cast(v, value.Double)
			if err != nil {
				return false
			}
			narrowed, err := value.Cast(widened, value.Int)
			if err != nil {
				return false
			}
			defer value.Destroy(narrowed)
			got, err := narrowed.Int()
			return err == nil && got == n
		},
		gen.Int32(),
	))

	properties.TestingRun(t)
}
