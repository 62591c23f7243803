package reflect

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/metacall/metacall-go/value"
)

// Object is {class (shared ref), name, impl vtable, atomic refcount}. It
// holds a shared (refcounted) reference to its Class: dropping the last
// Object after the Class has already been released triggers the Class's
// own drop.
type Object struct {
	Name  string
	Class *Class

	impl any
	refs atomic.Int64
}

// EntityID implements value.Entity.
func (o *Object) EntityID() value.ID { return value.Object }

// String implements value.Entity.
func (o *Object) String() string { return o.Name }

// Retain increments the refcount and returns o.
func (o *Object) Retain() *Object {
	o.refs.Add(1)
	return o
}

// Release decrements the refcount; on the last release it destroys the
// backend object state and releases the object's reference to its class,
// ("An object holds a shared reference to its class;
// dropping the last object after the class has been released triggers the
// class drop as well").
func (o *Object) Release() {
	if o.refs.Add(-1) > 0 {
		return
	}
	if o.Class.vtable != nil && o.Class.vtable.DestroyObject != nil {
		o.Class.vtable.DestroyObject(o.impl)
	}
	o.Class.Release()
}

// Refs returns the current refcount, for tests and leak detection.
func (o *Object) Refs() int64 { return o.refs.Load() }

// Get implements object_get: in Static accessor mode it
// refuses unknown attribute names; in Dynamic mode it forwards directly to
// the backend.
func (o *Object) Get(name string) (*value.Value, error) {
	if o.Class.Accessor == AccessorStatic {
		if _, ok := o.Class.Attributes[name]; !ok {
			return nil, fmt.Errorf("reflect: class %q has no static attribute %q", o.Class.Name, name)
		}
	}
	if o.Class.vtable == nil || o.Class.vtable.Get == nil {
		return nil, fmt.Errorf("reflect: class %q backend does not support attribute access", o.Class.Name)
	}
	return o.Class.vtable.Get(o.impl, name)
}

// Set implements object_set, mirroring Get's accessor-mode rule.
func (o *Object) Set(name string, v *value.Value) error {
	if o.Class.Accessor == AccessorStatic {
		if _, ok := o.Class.Attributes[name]; !ok {
			return fmt.Errorf("reflect: class %q has no static attribute %q", o.Class.Name, name)
		}
	}
	if o.Class.vtable == nil || o.Class.vtable.Set == nil {
		return fmt.Errorf("reflect: class %q backend does not support attribute access", o.Class.Name)
	}
	return o.Class.vtable.Set(o.impl, name, v)
}

// Call implements object_call: it picks an overload
// using signature_compare over the registered methods, then hands the
// backend both the chosen method descriptor and the raw args so the
// backend may coerce per its own type system.
func (o *Object) Call(_ context.Context, method string, args []*value.Value) (*value.Value, error) {
	overloads, ok := o.Class.Methods[method]
	if !ok || len(overloads) == 0 {
		return nil, fmt.Errorf("reflect: class %q has no method %q", o.Class.Name, method)
	}
	m, err := selectMethod(overloads, args)
	if err != nil {
		return nil, fmt.Errorf("reflect: class %q method %q: %w", o.Class.Name, method, err)
	}
	if o.Class.vtable == nil || o.Class.vtable.Invoke == nil {
		return nil, fmt.Errorf("reflect: class %q backend does not support method invocation", o.Class.Name)
	}
	return o.Class.vtable.Invoke(o.impl, m, args)
}

// Await implements the future contract for an await-capable method, with
// the same settlement contract as Function.Await.
func (o *Object) Await(method string, args []*value.Value, resolve, reject func(*value.Value)) (*Future, error) {
	overloads, ok := o.Class.Methods[method]
	if !ok || len(overloads) == 0 {
		return nil, fmt.Errorf("reflect: class %q has no method %q", o.Class.Name, method)
	}
	m, err := selectMethod(overloads, args)
	if err != nil {
		return nil, fmt.Errorf("reflect: class %q method %q: %w", o.Class.Name, method, err)
	}
	if !m.Async {
		result, err := o.Call(context.Background(), method, args)
		if err != nil {
			fut := NewFuture()
			_ = fut.Reject(value.CreateEntity(&Exception{Message: err.Error()}))
			fut.OnSettle(resolve, reject)
			return fut, nil
		}
		fut := NewFulfilledFuture(result)
		fut.OnSettle(resolve, reject)
		return fut, nil
	}
	if o.Class.vtable == nil || o.Class.vtable.Await == nil {
		return nil, fmt.Errorf("reflect: class %q backend does not support await", o.Class.Name)
	}
	return o.Class.vtable.Await(o.impl, m, args, resolve, reject)
}
