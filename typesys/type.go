// Package typesys implements the per-loader type registry: named type
// descriptors keyed by the closed value.ID enumeration. The same id may
// be known under a different name in every
// loader (value.Int is "Int32" in one backend, "Integer" in another), so a
// Registry is owned by exactly one loader.Impl, never shared globally.
package typesys

import "github.com/metacall/metacall-go/value"

// VTable holds the optional backend-specific conversion hooks for a Type.
// Both fields are optional; a loader that only needs the registry for
// signature bookkeeping (and marshals through value.Value directly) can
// leave them nil.
type VTable struct {
	// ToNative converts a Value into the backend's native representation.
	ToNative func(*value.Value) (any, error)
	// FromNative converts a backend-native representation into a Value.
	FromNative func(any) (*value.Value, error)
}

// Type is a named type descriptor: {id, name, opaque backend payload,
// backend vtable}
type Type struct {
	ID      value.ID
	Name    string
	Backend any
	VTable  *VTable
}

// IsPlaceholder reports whether t was synthesized by Registry.Resolve for
// an unknown backend type name rather than explicitly registered.
func (t *Type) IsPlaceholder() bool {
	return t != nil && t.ID == value.Invalid
}
