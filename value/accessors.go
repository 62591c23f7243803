package value

import "fmt"

// TypeMismatchError reports that an accessor was called against a Value
// whose id does not match the requested scalar/composite shape.
type TypeMismatchError struct {
	Want ID
	Got  ID
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("value: expected %s, got %s", e.Want, e.Got)
}

// Bool reinterprets v's payload as bool without copying.
func (v *Value) Bool() (bool, error) {
	b, ok := v.raw.(bool)
	if !ok {
		return false, &TypeMismatchError{Want: Bool, Got: v.id}
	}
	return b, nil
}

// Char reinterprets v's payload as a byte without copying.
func (v *Value) Char() (byte, error) {
	c, ok := v.raw.(byte)
	if !ok {
		return 0, &TypeMismatchError{Want: Char, Got: v.id}
	}
	return c, nil
}

// Short reinterprets v's payload as int16 without copying.
func (v *Value) Short() (int16, error) {
	s, ok := v.raw.(int16)
	if !ok {
		return 0, &TypeMismatchError{Want: Short, Got: v.id}
	}
	return s, nil
}

// Int reinterprets v's payload as int32 without copying.
func (v *Value) Int() (int32, error) {
	i, ok := v.raw.(int32)
	if !ok {
		return 0, &TypeMismatchError{Want: Int, Got: v.id}
	}
	return i, nil
}

// Long reinterprets v's payload as int64 without copying.
func (v *Value) Long() (int64, error) {
	l, ok := v.raw.(int64)
	if !ok {
		return 0, &TypeMismatchError{Want: Long, Got: v.id}
	}
	return l, nil
}

// Float reinterprets v's payload as float32 without copying.
func (v *Value) Float() (float32, error) {
	f, ok := v.raw.(float32)
	if !ok {
		return 0, &TypeMismatchError{Want: Float, Got: v.id}
	}
	return f, nil
}

// Double reinterprets v's payload as float64 without copying.
func (v *Value) Double() (float64, error) {
	d, ok := v.raw.(float64)
	if !ok {
		return 0, &TypeMismatchError{Want: Double, Got: v.id}
	}
	return d, nil
}

// String reinterprets v's payload as a string without copying.
func (v *Value) String() (string, error) {
	s, ok := v.raw.(string)
	if !ok {
		return "", &TypeMismatchError{Want: String, Got: v.id}
	}
	return s, nil
}

// Buffer returns the pointer into v's owned byte storage.
func (v *Value) Buffer() ([]byte, error) {
	b, ok := v.raw.([]byte)
	if !ok {
		return nil, &TypeMismatchError{Want: Buffer, Got: v.id}
	}
	return b, nil
}

// ToArray returns the pointer into v's owned element storage. The returned
// slice is borrowed: callers must not Destroy its elements directly, only
// through Destroy(v).
func (v *Value) ToArray() ([]*Value, error) {
	if v.id != Array {
		return nil, &TypeMismatchError{Want: Array, Got: v.id}
	}
	elems, _ := v.raw.([]*Value)
	return elems, nil
}

// ToMap returns the ordered key/value pairs of a map Value. Like ToArray,
// the result borrows v's storage.
func (v *Value) ToMap() ([]Pair, error) {
	if v.id != Map {
		return nil, &TypeMismatchError{Want: Map, Got: v.id}
	}
	rows, _ := v.raw.([]*Value)
	pairs := make([]Pair, len(rows))
	for i, row := range rows {
		kv, _ := row.raw.([]*Value)
		if len(kv) != 2 {
			return nil, fmt.Errorf("value: malformed map row %d", i)
		}
		pairs[i] = Pair{Key: kv[0], Value: kv[1]}
	}
	return pairs, nil
}

// Pointer reinterprets v's payload as an opaque native address.
func (v *Value) Pointer() (uintptr, error) {
	p, ok := v.raw.(uintptr)
	if !ok {
		return 0, &TypeMismatchError{Want: Pointer, Got: v.id}
	}
	return p, nil
}

// AsEntity returns the borrowed reflection Entity carried by a function,
// class, object, future, exception, or throwable Value.
func (v *Value) AsEntity() (Entity, error) {
	ent, ok := v.raw.(Entity)
	if !ok {
		return nil, &TypeMismatchError{Want: v.id, Got: v.id}
	}
	return ent, nil
}
