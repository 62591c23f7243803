package typesys

import (
	"sync"

	"github.com/metacall/metacall-go/value"
)

// Registry is the per-loader type table. It is safe for concurrent use:
// discovery may register new types while another goroutine resolves
// signatures for an in-flight invocation.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Type
}

// NewRegistry creates an empty type registry for a single loader.Impl.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Type)}
}

// Register records a new named type. Registering the same name twice
// replaces the previous descriptor — backends may re-register a type after
// hot-reloading a module.
func (r *Registry) Register(name string, id value.ID, backend any, vtable *VTable) *Type {
	t := &Type{ID: id, Name: name, Backend: backend, VTable: vtable}
	r.mu.Lock()
	r.byName[name] = t
	r.mu.Unlock()
	return t
}

// Lookup returns the type registered under name, if any.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// Resolve returns the type registered under name, or a TYPE_INVALID
// placeholder bound to that name if it isn't registered. This keeps
// signatures queryable when a backend reports an unknown type name. The
// dispatcher refuses to call a non-variadic function whose signature
// still holds a placeholder; for a variadic one, coerceArgs passes the
// placeholder slot's argument through unchanged.
func (r *Registry) Resolve(name string) *Type {
	if t, ok := r.Lookup(name); ok {
		return t
	}
	placeholder := &Type{ID: value.Invalid, Name: name}
	r.mu.Lock()
	// Re-check under the write lock in case of a concurrent Register/Resolve race.
	if existing, ok := r.byName[name]; ok {
		r.mu.Unlock()
		return existing
	}
	r.byName[name] = placeholder
	r.mu.Unlock()
	return placeholder
}

// ByID returns every registered type sharing the given id, in registration
// order is not guaranteed (map iteration) — used by introspection to list
// all known aliases for a numeric type id.
func (r *Registry) ByID(id value.ID) []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Type
	for _, t := range r.byName {
		if t.ID == id {
			out = append(out, t)
		}
	}
	return out
}

// Names returns every registered type name, including placeholders.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}
