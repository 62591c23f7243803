// Package scope implements the hierarchical namespace mapping names to
// reflection entities: a Scope is a name → Value mapping with stable
// (insertion-order) iteration and an optional parent; a Context is a
// tree of Scopes owned by a Handle.
package scope

import (
	"sync"

	"github.com/metacall/metacall-go/value"
)

// Scope is a name -> *value.Value mapping with a parent pointer. A Value
// stored in a Scope is owned by the Scope: Define transfers ownership,
// and Destroy releases every value still held. Iteration order over
// Names matches insertion order.
type Scope struct {
	mu     sync.Mutex
	parent *Scope
	names  []string
	values map[string]*value.Value
}

// New creates a Scope with the given parent (nil for a root scope).
func New(parent *Scope) *Scope {
	return &Scope{parent: parent, values: make(map[string]*value.Value)}
}

// Define binds name to v, transferring ownership of v to the scope.
// Redefining an existing name destroys the previous value it held.
func (s *Scope) Define(name string, v *value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.values[name]; ok {
		value.Destroy(old)
	} else {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// Get returns the value bound to name in this scope or, failing that,
// walks parent-ward. The returned value is borrowed: the caller must not
// destroy it directly.
func (s *Scope) Get(name string) (*value.Value, bool) {
	for cur := s; cur != nil; cur = cur.parentRef() {
		cur.mu.Lock()
		v, ok := cur.values[name]
		cur.mu.Unlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// GetLocal returns the value bound to name in this scope only, without
// walking to the parent.
func (s *Scope) GetLocal(name string) (*value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return v, ok
}

// Names returns every name defined directly in this scope, in insertion order.
func (s *Scope) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Parent returns the scope's parent, or nil for a root scope.
func (s *Scope) Parent() *Scope { return s.parentRef() }

func (s *Scope) parentRef() *Scope { return s.parent }

// destroy releases every value held directly by this scope. It does not
// recurse into children: Context.Destroy walks the scope tree itself.
func (s *Scope) destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range s.names {
		value.Destroy(s.values[name])
	}
	s.names = nil
	s.values = nil
}
