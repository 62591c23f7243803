// Package reflect implements the in-memory schema of everything a loader
// discovers — functions, signatures, classes, methods, attributes,
// constructors, objects, exceptions, throwables, and futures. It depends
// on package value (every reflection entity can ride inside a
// *value.Value) and package typesys (every signature slot is typed), but
// neither of those import reflect, which keeps the class-method-signature
// ownership graph from ever closing into a cycle through shared ownership:
// a Method holds its owning Class only by name (see constructor.go), never
// by pointer.
package reflect

import (
	"github.com/metacall/metacall-go/typesys"
	"github.com/metacall/metacall-go/value"
)

// Slot is one (name, type) argument pair in a Signature. A nil Type means
// "inferred at call site"
type Slot struct {
	Name string
	Type *typesys.Type
}

// Signature is an ordered list of argument slots plus a return type,
//
type Signature struct {
	args     []Slot
	ret      *typesys.Type
	variadic bool
}

// NewSignature allocates a Signature with argc unresolved (nil-typed)
// slots for the caller to fill via Set.
func NewSignature(argc int) *Signature {
	return &Signature{args: make([]Slot, argc)}
}

// Arity returns the number of argument slots.
func (s *Signature) Arity() int { return len(s.args) }

// Set names and types the i'th argument slot.
func (s *Signature) Set(i int, name string, t *typesys.Type) {
	s.args[i] = Slot{Name: name, Type: t}
}

// SetReturn sets the signature's return type.
func (s *Signature) SetReturn(t *typesys.Type) { s.ret = t }

// SetVariadic marks the signature as accepting a TYPE_INVALID slot without
// the dispatcher refusing the call
func (s *Signature) SetVariadic(v bool) { s.variadic = v }

// Variadic reports whether the signature was marked variadic.
func (s *Signature) Variadic() bool { return s.variadic }

// Arg returns the i'th argument slot.
func (s *Signature) Arg(i int) Slot { return s.args[i] }

// Slots returns every argument slot in declaration order, for iteration.
func (s *Signature) Slots() []Slot { return s.args }

// Return returns the signature's return type, or nil if unresolved.
func (s *Signature) Return() *typesys.Type { return s.ret }

// HasInvalidSlot reports whether any argument slot or the return type is
// still bound to a TYPE_INVALID placeholder.
func (s *Signature) HasInvalidSlot() bool {
	for _, a := range s.args {
		if a.Type != nil && a.Type.IsPlaceholder() {
			return true
		}
	}
	return s.ret != nil && s.ret.IsPlaceholder()
}

// CompareResult is the 0/1/2 outcome of Signature.Compare.
type CompareResult int

const (
	// Exact means every argument's value id matches its slot's type id.
	Exact CompareResult = 0
	// Convertible means every argument matches or implicitly widens to its
	// slot's type id.
	Convertible CompareResult = 1
	// Mismatch means at least one argument cannot be made to fit.
	Mismatch CompareResult = 2
)

// Compare implements the overload-resolution contract:
// 0 on exact match, 1 on "convertible" (implicit widening applies to at
// least one argument and no argument mismatches outright), 2 on mismatch.
// An unresolved (nil-typed) slot always matches, since it means "inferred
// at call site". A slot still bound to TYPE_INVALID is treated the same
// way: the dispatcher, not Compare, is responsible for refusing a call
// whose signature carries an unresolved placeholder on a non-variadic
// function.
func (s *Signature) Compare(args []*value.Value) CompareResult {
	if len(args) != len(s.args) {
		return Mismatch
	}
	result := Exact
	for i, a := range args {
		slot := s.args[i]
		if slot.Type == nil || slot.Type.IsPlaceholder() {
			continue
		}
		if a.ID() == slot.Type.ID {
			continue
		}
		if widensTo(a.ID(), slot.Type.ID) {
			if result < Convertible {
				result = Convertible
			}
			continue
		}
		return Mismatch
	}
	return result
}

// numericRank orders the numeric ids from narrowest to widest for the
// implicit-widening rule used by Compare and by overload resolution.
var numericRank = map[value.ID]int{
	value.Bool:   0,
	value.Char:   1,
	value.Short:  2,
	value.Int:    3,
	value.Long:   4,
	value.Float:  5,
	value.Double: 6,
}

// widensTo reports whether a value of id `from` implicitly widens to a
// slot expecting id `to` — e.g. an int argument satisfies a double slot.
// Narrowing (double argument into an int slot) is never implicit; callers
// must cast explicitly.
func widensTo(from, to value.ID) bool {
	fr, ok1 := numericRank[from]
	tr, ok2 := numericRank[to]
	return ok1 && ok2 && fr <= tr
}
