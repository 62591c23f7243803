package loader

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/metacall/metacall-go/telemetry"
)

// Factory constructs a fresh Impl for a given tag, used by Registry on
// first use of that tag (e.g. "py" -> a Python embedding backend).
type Factory func() Impl

// Registry is the process-wide directory mapping a language tag to its
// Loader, tracking initialization order and enforcing destroy in reverse
// order. It is guarded by a reader-writer lock: lookups take a read lock,
// initialization/destruction take the write lock.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	loaders   map[string]*Loader
	order     []string

	limiterRPS rate.Limit
	burst      int
	obs        *observability
}

// NewRegistry creates an empty Registry. limiterRPS/burst are the default
// per-loader rate limit handed to every Loader this registry creates. tel
// wires structured logging, metrics, and tracing around backend
// initialization and teardown; pass telemetry.Noop() to discard them.
func NewRegistry(limiterRPS rate.Limit, burst int, tel telemetry.Set) *Registry {
	return &Registry{
		factories:  make(map[string]Factory),
		loaders:    make(map[string]*Loader),
		limiterRPS: limiterRPS,
		burst:      burst,
		obs:        newObservability(tel),
	}
}

// RegisterFactory associates tag with a backend factory. The backend
// itself is not constructed until first use.
func (r *Registry) RegisterFactory(tag string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[tag] = f
}

// Loader returns the Loader for tag, constructing and initializing its
// backend on first use. Returns an error wrapping ErrNoSuchLoader if no
// factory was registered for tag, or an *InitError if the backend's
// Initialize call fails.
func (r *Registry) Loader(ctx context.Context, tag string, config []byte) (*Loader, error) {
	r.mu.RLock()
	l, ok := r.loaders[tag]
	r.mu.RUnlock()
	if ok {
		return l, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loaders[tag]; ok {
		return l, nil
	}
	factory, ok := r.factories[tag]
	if !ok {
		err := fmt.Errorf("loader: no backend registered for tag %q: %w", tag, ErrNoSuchLoader)
		r.obs.recordOp(ctx, opInit, tag, 0, err)
		return nil, err
	}

	spanCtx, start, span := r.obs.startOp(ctx, opInit, tag)
	impl := factory()
	l = New(tag, impl, r.limiterRPS, r.burst)
	if err := l.Initialize(spanCtx, config); err != nil {
		initErr := NewInitError(tag, err)
		r.obs.endOp(spanCtx, start, span, opInit, tag, initErr)
		return nil, initErr
	}
	r.loaders[tag] = l
	r.order = append(r.order, tag)
	r.obs.endOp(spanCtx, start, span, opInit, tag, nil)
	return l, nil
}

// Lookup returns an already-initialized Loader without constructing one.
func (r *Registry) Lookup(tag string) (*Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[tag]
	return l, ok
}

// Tags returns every initialized tag in initialization order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Destroy tears down the loader for tag: the registry removes every
// Handle and Context originating from it before the backend library
// itself is unloaded. Registry unlinks the tag first; Loader.Destroy
// then destroys its handles' contexts before calling the backend's
// Destroy.
func (r *Registry) Destroy(ctx context.Context, tag string) error {
	r.mu.Lock()
	l, ok := r.loaders[tag]
	if !ok {
		r.mu.Unlock()
		err := fmt.Errorf("loader: no such tag %q", tag)
		r.obs.recordOp(ctx, opDestroy, tag, 0, err)
		return err
	}
	delete(r.loaders, tag)
	for i, t := range r.order {
		if t == tag {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	spanCtx, start, span := r.obs.startOp(ctx, opDestroy, tag)
	err := l.Destroy(spanCtx)
	r.obs.endOp(spanCtx, start, span, opDestroy, tag, err)
	return err
}

// DestroyAll tears down every loader in reverse-initialization order.
func (r *Registry) DestroyAll(ctx context.Context) error {
	r.mu.RLock()
	order := make([]string, len(r.order))
	copy(order, r.order)
	r.mu.RUnlock()

	var firstErr error
	for i := len(order) - 1; i >= 0; i-- {
		if err := r.Destroy(ctx, order[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
