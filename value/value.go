package value

import (
	"fmt"
	"sync/atomic"
)

// Value is the universal, reference-counted carrier every loader and
// reflection entity exchanges. It carries exactly one type id and, for
// composites, a count of elements. Scalars are stored inline in raw;
// composites (array, map, buffer) own their payload on the heap (a Go
// slice); pointer, function, class, object, future, exception, and
// throwable hold a borrowed reference.
type Value struct {
	id   ID
	raw  any
	refs *atomic.Int64
}

// New constructs a Value with refcount 1 wrapping raw. Callers outside this
// package should use the typed Create* constructors below; New is exported
// for package reflect, which needs to wrap its own Entity types.
func New(id ID, raw any) *Value {
	v := &Value{id: id, raw: raw, refs: new(atomic.Int64)}
	v.refs.Store(1)
	return v
}

// CreateBool creates a bool-valued Value.
func CreateBool(b bool) *Value { return New(Bool, b) }

// CreateChar creates a char-valued Value (a single byte, matching the C `char`).
func CreateChar(c byte) *Value { return New(Char, c) }

// CreateShort creates a short-valued (int16) Value.
func CreateShort(s int16) *Value { return New(Short, s) }

// CreateInt creates an int-valued (int32) Value.
func CreateInt(i int32) *Value { return New(Int, i) }

// CreateLong creates a long-valued (int64) Value.
func CreateLong(l int64) *Value { return New(Long, l) }

// CreateFloat creates a float-valued (float32) Value.
func CreateFloat(f float32) *Value { return New(Float, f) }

// CreateDouble creates a double-valued (float64) Value.
func CreateDouble(d float64) *Value { return New(Double, d) }

// CreateString creates a string-valued Value.
func CreateString(s string) *Value { return New(String, s) }

// CreateBuffer creates a buffer-valued Value. The buffer's bytes are
// copied; the new Value owns its own storage.
func CreateBuffer(b []byte) *Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return New(Buffer, cp)
}

// CreateNull creates the singleton-shaped null Value.
func CreateNull() *Value { return New(Null, nil) }

// CreateInvalid creates an invalid Value, used as a placeholder where a
// backend type or symbol could not be resolved.
func CreateInvalid() *Value { return New(Invalid, nil) }

// CreatePointer creates a Value wrapping an opaque native address. Pointers
// are always borrowed: Destroy never frees the pointee.
func CreatePointer(p uintptr) *Value { return New(Pointer, p) }

// CreateArray creates an array Value taking ownership of elems: the caller
// must not use elems, nor destroy its members, afterwards — ownership
// transfers to the new Value.
func CreateArray(elems []*Value) *Value {
	cp := make([]*Value, len(elems))
	copy(cp, elems)
	return New(Array, cp)
}

// CreateArrayN allocates an array Value of n null slots. Value has no
// per-slot setter; ToArray returns the slice backing those slots.
func CreateArrayN(n int) *Value {
	slots := make([]*Value, n)
	for i := range slots {
		slots[i] = CreateNull()
	}
	return New(Array, slots)
}

// Pair is a single key/value row of a Map value: a map is an ordered
// sequence of 2-element arrays, and Pair is the Go-side shorthand for
// that row so callers don't have to build literal 2-element Array values.
type Pair struct {
	Key   *Value
	Value *Value
}

// CreateMap creates a map Value from an ordered list of pairs, taking
// ownership of every key and value exactly like CreateArray.
func CreateMap(pairs []Pair) *Value {
	rows := make([]*Value, len(pairs))
	for i, p := range pairs {
		rows[i] = CreateArray([]*Value{p.Key, p.Value})
	}
	return New(Map, rows)
}

// CreateEntity wraps a reflection Entity (function, class, object, future,
// exception, or throwable) as a Value. The Value borrows ent: Destroy
// releases the wrapper but never the entity itself.
func CreateEntity(ent Entity) *Value {
	return New(ent.EntityID(), ent)
}

// ID returns the value's type tag.
func (v *Value) ID() ID { return v.id }

// Count returns the element count for composites and 1 otherwise.
func (v *Value) Count() int {
	switch s := v.raw.(type) {
	case []*Value:
		return len(s)
	default:
		return 1
	}
}

// Size returns the payload size in bytes. For composites this is the
// storage occupied by the element handles
// themselves (8 bytes per pointer-sized slot on a 64-bit host), not the
// transitive size of the children.
func (v *Value) Size() int {
	const ptrSize = 8
	switch v.id {
	case Bool, Char:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Long, Double, Pointer:
		return 8
	case String:
		s, _ := v.raw.(string)
		return len(s)
	case Buffer:
		b, _ := v.raw.([]byte)
		return len(b)
	case Array, Map:
		return v.Count() * ptrSize
	case Function, Class, Object, Future, Exception, Throwable:
		return ptrSize
	case Null, Invalid:
		return 0
	default:
		return 0
	}
}

// Refs returns the current reference count. Intended for tests and leak
// detection, not for production control flow.
func (v *Value) Refs() int64 {
	if v == nil || v.refs == nil {
		return 0
	}
	return v.refs.Load()
}

// Copy returns a new owning reference to v: the refcount is incremented
// and the same underlying Value is returned — a copy is a new handle onto
// shared storage, not a deep clone.
func Copy(v *Value) *Value {
	if v == nil {
		return nil
	}
	v.refs.Add(1)
	return v
}

// Destroy decrements v's reference counter. On the last release it
// recursively destroys owned children (array/map elements) before freeing
// v's own storage, but never follows borrowed cross-references (pointer,
// function, class, object, future, exception, throwable payloads).
func Destroy(v *Value) {
	if v == nil || v.refs == nil {
		return
	}
	left := v.refs.Add(-1)
	if left > 0 {
		return
	}
	if left < 0 {
		// Double-destroy: the ownership tree must not contain cycles and
		// each node must be visited at most once. Restore the counter so
		// a further Destroy doesn't underflow again, and surface the bug
		// instead of silently corrupting state.
		v.refs.Store(0)
		panic(fmt.Sprintf("value: Destroy called on an already-destroyed %s value", v.id))
	}
	if rows, ok := v.raw.([]*Value); ok {
		for _, child := range rows {
			Destroy(child)
		}
	}
	v.raw = nil
}

// Stringify renders v for debugging and for the serial bridge's scalar
// fallback path. It is defined for every variant.
func (v *Value) Stringify() string {
	if v == nil {
		return "<nil>"
	}
	switch raw := v.raw.(type) {
	case bool:
		if raw {
			return "true"
		}
		return "false"
	case byte:
		return string(rune(raw))
	case int16:
		return fmt.Sprintf("%d", raw)
	case int32:
		return fmt.Sprintf("%d", raw)
	case int64:
		return fmt.Sprintf("%d", raw)
	case float32:
		return fmt.Sprintf("%g", raw)
	case float64:
		return fmt.Sprintf("%g", raw)
	case string:
		return raw
	case []byte:
		return fmt.Sprintf("<buffer:%d bytes>", len(raw))
	case uintptr:
		return fmt.Sprintf("0x%x", raw)
	case []*Value:
		if v.id == Map {
			return stringifyMap(raw)
		}
		return stringifyArray(raw)
	case Entity:
		return raw.String()
	case nil:
		return v.id.String()
	default:
		return fmt.Sprintf("<%s>", v.id)
	}
}

func stringifyArray(elems []*Value) string {
	out := "["
	for i, e := range elems {
		if i > 0 {
			out += ", "
		}
		out += e.Stringify()
	}
	return out + "]"
}

func stringifyMap(rows []*Value) string {
	out := "{"
	for i, row := range rows {
		if i > 0 {
			out += ", "
		}
		kv, _ := row.raw.([]*Value)
		if len(kv) == 2 {
			out += kv[0].Stringify() + ": " + kv[1].Stringify()
		}
	}
	return out + "}"
}
