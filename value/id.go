// Package value implements the universal, reference-counted, dynamically
// typed carrier that crosses every loader boundary in the core. Every
// foreign value — a Python int, a Node string, a Ruby object — is marshaled
// into a *Value before it is visible to the dispatcher, and marshaled back
// out by the owning loader on the way home.
package value

// ID is the closed enumeration of type tags a Value may carry. The numeric
// order is part of the ABI: cross-layer consumers (the serial bridge, the
// C-ABI facade, remote loaders speaking the wire protocol) depend on these
// values staying stable across releases, so ID is append-only — never
// reorder or renumber an existing constant.
type ID int

const (
	Bool ID = iota
	Char
	Short
	Int
	Long
	Float
	Double
	String
	Buffer
	Array
	Map
	Pointer
	Future
	Function
	Class
	Object
	Symbol
	Exception
	Throwable
	Null
	Size
	Invalid
)

var names = [...]string{
	Bool:      "bool",
	Char:      "char",
	Short:     "short",
	Int:       "int",
	Long:      "long",
	Float:     "float",
	Double:    "double",
	String:    "string",
	Buffer:    "buffer",
	Array:     "array",
	Map:       "map",
	Pointer:   "pointer",
	Future:    "future",
	Function:  "function",
	Class:     "class",
	Object:    "object",
	Symbol:    "symbol",
	Exception: "exception",
	Throwable: "throwable",
	Null:      "null",
	Size:      "size",
	Invalid:   "invalid",
}

// String returns the canonical lower-case name of the id, as used by
// Stringify fallbacks and the serial bridge's tag strings.
func (id ID) String() string {
	if id < 0 || int(id) >= len(names) {
		return "invalid"
	}
	return names[id]
}

// IsNumeric reports whether id denotes one of the scalar numeric sorts
// eligible for the saturating/widening cast rules in Cast.
func (id ID) IsNumeric() bool {
	switch id {
	case Bool, Char, Short, Int, Long, Float, Double:
		return true
	default:
		return false
	}
}

// IsComposite reports whether id owns heap-allocated child values that a
// destroy must walk recursively (array and map).
func (id ID) IsComposite() bool {
	return id == Array || id == Map
}

// IsPortable reports whether a value of this id can cross the serial
// bridge as structural data. Function, class, object, future, and pointer
// are not portable: they encode as their tag strings and decode back as
// those literal strings, never as the original entity.
func (id ID) IsPortable() bool {
	switch id {
	case Function, Class, Object, Future, Pointer:
		return false
	default:
		return true
	}
}
