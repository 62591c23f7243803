package reflect

import (
	"github.com/metacall/metacall-go/typesys"
	"github.com/metacall/metacall-go/value"
)

// Visibility is the access modifier carried by constructors, methods, and
// attributes
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

// Attribute is {name, type, visibility, default-value, owning class name}
// A "static" attribute lives on the class; a "member"
// attribute lives on each object — Static distinguishes the two. The
// owning class is referenced by name only (a weak reference), never by
// pointer, to avoid a reference cycle between Class and its own attributes.
type Attribute struct {
	Name        string
	Type        *typesys.Type
	Visibility  Visibility
	Default     *value.Value
	OwningClass string
	Static      bool
}
