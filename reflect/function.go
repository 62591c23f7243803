package reflect

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/metacall/metacall-go/value"
)

// FunctionVTable is the backend vtable slot set: a
// loader implements Invoke/Await/Destroy against its own opaque impl
// state; Function never knows what impl actually is.
type FunctionVTable struct {
	Invoke  func(impl any, args []*value.Value) (*value.Value, error)
	Await   func(impl any, args []*value.Value, resolve, reject func(*value.Value)) (*Future, error)
	Destroy func(impl any)
}

// Function is {name, arity, sync/async flag, impl vtable, signature},
// atomically reference-counted.
type Function struct {
	Name      string
	Async     bool
	Signature *Signature

	impl   any
	vtable *FunctionVTable
	refs   atomic.Int64
}

// NewFunction constructs a Function with refcount 1.
func NewFunction(name string, async bool, sig *Signature, impl any, vtable *FunctionVTable) *Function {
	f := &Function{Name: name, Async: async, Signature: sig, impl: impl, vtable: vtable}
	f.refs.Store(1)
	return f
}

// EntityID implements value.Entity.
func (f *Function) EntityID() value.ID { return value.Function }

// String implements value.Entity.
func (f *Function) String() string { return f.Name }

// Arity returns the function's declared argument count.
func (f *Function) Arity() int { return f.Signature.Arity() }

// Retain increments the refcount and returns f, for callers that need to
// hand out another owning reference (e.g. storing the same Function in
// two scopes).
func (f *Function) Retain() *Function {
	f.refs.Add(1)
	return f
}

// Release decrements the refcount; on the last release it calls the
// backend's Destroy.
func (f *Function) Release() {
	if f.refs.Add(-1) <= 0 && f.vtable != nil && f.vtable.Destroy != nil {
		f.vtable.Destroy(f.impl)
	}
}

// Call performs a synchronous invocation If the function
// is actually Asynchronous, Call transparently awaits the returned future
// by blocking on it (the dispatcher drives no separate "event loop" of its
// own — the loader's dedicated goroutine settles the future, and Wait
// simply blocks until it does), returning the resolved value, or, on
// rejection, a Throwable value wrapping the rejection value (with a nil
// error).
func (f *Function) Call(ctx context.Context, args []*value.Value) (*value.Value, error) {
	if f.vtable == nil {
		return nil, fmt.Errorf("reflect: function %q has no backend vtable", f.Name)
	}
	if !f.Async {
		if f.vtable.Invoke == nil {
			return nil, fmt.Errorf("reflect: function %q backend does not support invoke", f.Name)
		}
		return f.vtable.Invoke(f.impl, args)
	}
	fut, err := f.awaitVTable(args, nil, nil)
	if err != nil {
		return nil, err
	}
	result, rejected, err := fut.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if rejected {
		return NewThrowableValue(result), nil
	}
	return result, nil
}

// Await performs an asynchronous invocation, returning a
// Future immediately. resolve and reject are optional: when non-nil,
// exactly one of them fires, at most once, on the goroutine that settles
// the returned Future, or on the caller's goroutine during Await when the
// Future is already settled by then (always the case for a Synchronous
// function). Calling Await on a Synchronous function immediately produces a
// Fulfilled (or Rejected, on invocation error) future rather than
// blocking the caller.
func (f *Function) Await(args []*value.Value, resolve, reject func(*value.Value)) (*Future, error) {
	if f.vtable == nil {
		return nil, fmt.Errorf("reflect: function %q has no backend vtable", f.Name)
	}
	if f.Async {
		return f.awaitVTable(args, resolve, reject)
	}
	if f.vtable.Invoke == nil {
		return nil, fmt.Errorf("reflect: function %q backend does not support invoke", f.Name)
	}
	result, err := f.vtable.Invoke(f.impl, args)
	var fut *Future
	if err != nil {
		fut = NewFuture()
		_ = fut.Reject(value.CreateEntity(&Exception{Message: err.Error()}))
	} else {
		fut = NewFulfilledFuture(result)
	}
	fut.OnSettle(resolve, reject)
	return fut, nil
}

func (f *Function) awaitVTable(args []*value.Value, resolve, reject func(*value.Value)) (*Future, error) {
	if f.vtable.Await == nil {
		return nil, fmt.Errorf("reflect: function %q backend does not support await", f.Name)
	}
	fut, err := f.vtable.Await(f.impl, args, resolve, reject)
	if err != nil {
		return nil, err
	}
	return fut, nil
}
