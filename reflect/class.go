package reflect

import (
	"fmt"
	"sync/atomic"

	"github.com/metacall/metacall-go/value"
)

// AccessorMode selects how Object.Get/Set resolve attribute names: Static
// accessor mode requires attributes to be declared before get/set; Dynamic
// allows arbitrary names.
type AccessorMode int

const (
	AccessorStatic AccessorMode = iota
	AccessorDynamic
)

// ClassVTable is the backend vtable for class/object operations. Every
// method receives the opaque impl state the backend handed back from a
// previous call, never a typed pointer — this is the "opaque bytes behind
// a trait object" pattern
type ClassVTable struct {
	Construct     func(classImpl any, ctor *Constructor, args []*value.Value) (objImpl any, err error)
	Get           func(objImpl any, name string) (*value.Value, error)
	Set           func(objImpl any, name string, v *value.Value) error
	Invoke        func(objImpl any, method *Method, args []*value.Value) (*value.Value, error)
	Await         func(objImpl any, method *Method, args []*value.Value, resolve, reject func(*value.Value)) (*Future, error)
	DestroyObject func(objImpl any)
	DestroyClass  func(classImpl any)
}

// Class is {name, accessor mode, constructors, methods, static methods,
// attributes, static attributes, impl vtable, atomic refcount}.
type Class struct {
	Name             string
	Accessor         AccessorMode
	Constructors     []*Constructor
	Methods          map[string][]*Method
	StaticMethods    map[string][]*Method
	Attributes       map[string]*Attribute
	StaticAttributes map[string]*Attribute

	impl   any
	vtable *ClassVTable
	refs   atomic.Int64
}

// NewClass constructs a Class with refcount 1 and empty method/attribute
// tables ready to populate during discovery.
func NewClass(name string, accessor AccessorMode, impl any, vtable *ClassVTable) *Class {
	c := &Class{
		Name:             name,
		Accessor:         accessor,
		Methods:          make(map[string][]*Method),
		StaticMethods:    make(map[string][]*Method),
		Attributes:       make(map[string]*Attribute),
		StaticAttributes: make(map[string]*Attribute),
		impl:             impl,
		vtable:           vtable,
	}
	c.refs.Store(1)
	return c
}

// EntityID implements value.Entity.
func (c *Class) EntityID() value.ID { return value.Class }

// String implements value.Entity.
func (c *Class) String() string { return c.Name }

// Retain increments the refcount and returns c.
func (c *Class) Retain() *Class {
	c.refs.Add(1)
	return c
}

// Release decrements the refcount; on the last release it calls the
// backend's DestroyClass. A Class must outlive every Object constructed
// from it, so callers must ensure every Object's own Release has already
// run before a Class reaches zero through normal use — Object.Release
// enforces this by releasing its Class reference as part of its own
// teardown.
func (c *Class) Release() {
	if c.refs.Add(-1) <= 0 && c.vtable != nil && c.vtable.DestroyClass != nil {
		c.vtable.DestroyClass(c.impl)
	}
}

// Refs returns the current refcount, for tests and leak detection.
func (c *Class) Refs() int64 { return c.refs.Load() }

// ResolveConstructor implements the constructor-resolution half of the
// class_new algorithm: it iterates the recorded
// constructors, returns the first exact match, and — if none match —
// falls back to the first registered constructor so dynamic languages can
// pass arguments variadically.
func (c *Class) ResolveConstructor(args []*value.Value) (*Constructor, error) {
	if len(c.Constructors) == 0 {
		return nil, fmt.Errorf("reflect: class %q has no registered constructor", c.Name)
	}
	for _, ctor := range c.Constructors {
		if ctor.Signature.Compare(args) == Exact {
			return ctor, nil
		}
	}
	return c.Constructors[0], nil
}

// New implements class_new: resolve a constructor if
// none is given, call the backend constructor, and increment the class's
// refcount on behalf of the new object. Registering the object in a
// parent handle is the caller's responsibility — Class has no knowledge of
// scopes or handles, by design.
func (c *Class) New(name string, ctor *Constructor, args []*value.Value) (*Object, error) {
	if c.vtable == nil || c.vtable.Construct == nil {
		return nil, fmt.Errorf("reflect: class %q backend does not support construction", c.Name)
	}
	if ctor == nil {
		var err error
		ctor, err = c.ResolveConstructor(args)
		if err != nil {
			return nil, err
		}
	}
	objImpl, err := c.vtable.Construct(c.impl, ctor, args)
	if err != nil {
		return nil, err
	}
	c.Retain()
	obj := &Object{Name: name, Class: c, impl: objImpl}
	obj.refs.Store(1)
	return obj, nil
}

// InvokeStaticMethod resolves an overload among c's static methods and
// invokes it against the class's own backend state (static methods have
// no receiving object, so the class impl stands in for it).
func (c *Class) InvokeStaticMethod(name string, args []*value.Value) (*value.Value, error) {
	overloads, ok := c.StaticMethods[name]
	if !ok || len(overloads) == 0 {
		return nil, fmt.Errorf("reflect: class %q has no static method %q", c.Name, name)
	}
	m, err := selectMethod(overloads, args)
	if err != nil {
		return nil, fmt.Errorf("reflect: class %q static method %q: %w", c.Name, name, err)
	}
	if c.vtable == nil || c.vtable.Invoke == nil {
		return nil, fmt.Errorf("reflect: class %q backend does not support method invocation", c.Name)
	}
	return c.vtable.Invoke(c.impl, m, args)
}

// selectMethod picks the overload whose signature best matches args using
// the same compare-over-registered-signatures rule as function dispatch.
// It prefers an exact match, falls back to any convertible match, and
// otherwise reports an error.
func selectMethod(overloads []*Method, args []*value.Value) (*Method, error) {
	var convertible *Method
	for _, m := range overloads {
		switch m.Signature.Compare(args) {
		case Exact:
			return m, nil
		case Convertible:
			if convertible == nil {
				convertible = m
			}
		}
	}
	if convertible != nil {
		return convertible, nil
	}
	return nil, fmt.Errorf("reflect: no overload matches the given %d argument(s)", len(args))
}
