package reflect

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/metacall/metacall-go/value"
)

// State is the settlement state of a Future
type State int

const (
	Pending State = iota
	Fulfilled
	Rejected
)

// ErrFutureAlreadySettled is returned by Resolve/Reject when a Future has
// already fired;requires exactly one of resolve/reject to
// fire, at most once.
var ErrFutureAlreadySettled = errors.New("reflect: future already settled")

// Future is the pending/fulfilled/rejected asynchronous result produced by
// awaiting a Function or an await-capable Method
// It carries one waiter callback chain: whichever of resolve/reject is
// registered via OnSettle fires exactly once, after the value settles.
type Future struct {
	// ID stably identifies this future across log lines and telemetry
	// spans, independent of its memory address.
	ID string

	mu      sync.Mutex
	state   State
	result  *value.Value
	done    chan struct{}
	resolve func(*value.Value)
	reject  func(*value.Value)
}

// NewFuture creates a Pending future.
func NewFuture() *Future {
	return &Future{ID: uuid.NewString(), done: make(chan struct{})}
}

// NewFulfilledFuture creates an already-Fulfilled future. Used when an
// asynchronous call wraps a synchronous function's immediate result: an
// asynchronous call over a synchronous function immediately produces a
// Fulfilled future.
func NewFulfilledFuture(result *value.Value) *Future {
	f := &Future{ID: uuid.NewString(), state: Fulfilled, result: result, done: make(chan struct{})}
	close(f.done)
	return f
}

// EntityID implements value.Entity.
func (f *Future) EntityID() value.ID { return value.Future }

// String implements value.Entity.
func (f *Future) String() string {
	switch f.State() {
	case Fulfilled:
		return "Future(fulfilled)"
	case Rejected:
		return "Future(rejected)"
	default:
		return "Future(pending)"
	}
}

// State returns the current settlement state.
func (f *Future) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// OnSettle registers the resolve/reject callback pair to fire when the
// future settles. If the future has already settled, the appropriate
// callback fires immediately on the calling goroutine; otherwise it fires
// later from whichever goroutine calls Resolve or Reject — expected to be
// the loader's event-loop thread (the goroutine draining loader.Loader's
// task queue).
func (f *Future) OnSettle(resolve, reject func(*value.Value)) {
	f.mu.Lock()
	state, result := f.state, f.result
	if state == Pending {
		f.resolve, f.reject = resolve, reject
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	fire(state, result, resolve, reject)
}

// Resolve settles the future as Fulfilled with result, firing any
// registered resolve callback. Calling Resolve or Reject more than once
// returns ErrFutureAlreadySettled.
func (f *Future) Resolve(result *value.Value) error {
	return f.settle(Fulfilled, result)
}

// Reject settles the future as Rejected with an exception value (normally
// a reflect.Exception wrapped via value.CreateEntity), firing any
// registered reject callback.
func (f *Future) Reject(exception *value.Value) error {
	return f.settle(Rejected, exception)
}

func (f *Future) settle(state State, result *value.Value) error {
	f.mu.Lock()
	if f.state != Pending {
		f.mu.Unlock()
		return ErrFutureAlreadySettled
	}
	f.state = state
	f.result = result
	resolve, reject := f.resolve, f.reject
	close(f.done)
	f.mu.Unlock()
	fire(state, result, resolve, reject)
	return nil
}

func fire(state State, result *value.Value, resolve, reject func(*value.Value)) {
	switch state {
	case Fulfilled:
		if resolve != nil {
			resolve(result)
		}
	case Rejected:
		if reject != nil {
			reject(result)
		}
	}
}

// Wait blocks the caller until the future settles or ctx is done,
// returning the settled value and whether it was a rejection. This is the
// mechanism by which a synchronous call over an asynchronous function
// "transparently awaits": the dispatcher calls Wait
// instead of reimplementing the loader's event loop.
func (f *Future) Wait(ctx context.Context) (result *value.Value, rejected bool, err error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result, f.state == Rejected, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
