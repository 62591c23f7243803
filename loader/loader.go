package loader

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/metacall/metacall-go/scope"
)

// task is one operation queued onto a Confined loader's single drain
// goroutine ("a per-loader FIFO task queue drained by the
// thread that initialized it").
type task struct {
	run  func() (any, error)
	done chan taskResult
}

type taskResult struct {
	value any
	err   error
}

// Loader owns one Impl backend plus its handle table
// ("Loader Impl — {tag, backend vtable, map of types, configuration, set
// of known execution paths, handle table}"). A Confined backend is only
// ever entered from the single goroutine draining taskQueue; a
// FreeThreaded backend executes inline on the caller's goroutine. Every
// entry point is additionally rate-limited so one caller's backlog cannot
// starve other loaders sharing the process.
type Loader struct {
	Tag   string
	impl  Impl
	limit *rate.Limiter

	// Global is the loader's default context: discovery against a load
	// request made with no caller-held handle name populates this shared
	// context rather than a fresh private one step 3a
	// ("discovery against ... the global handle's scope, if no
	// caller-held handle was requested").
	Global *scope.Context

	mu          sync.Mutex
	execPaths   []string
	handles     map[string]*Handle
	initialized bool

	taskQueue chan task
	quit      chan struct{}
	wg        sync.WaitGroup
}

// New wraps impl as a Loader for the given tag. limiterRPS/burst configure
// the per-loader rate limiter (use rate.Inf and a large burst to disable
// throttling in tests).
func New(tag string, impl Impl, limiterRPS rate.Limit, burst int) *Loader {
	l := &Loader{
		Tag:     tag,
		impl:    impl,
		limit:   rate.NewLimiter(limiterRPS, burst),
		handles: make(map[string]*Handle),
		Global:  scope.NewContext(),
	}
	if impl.Threading() == Confined {
		l.taskQueue = make(chan task, 64)
		l.quit = make(chan struct{})
		l.wg.Add(1)
		go l.drain()
	}
	return l
}

func (l *Loader) drain() {
	defer l.wg.Done()
	for {
		select {
		case t := <-l.taskQueue:
			v, err := t.run()
			t.done <- taskResult{value: v, err: err}
		case <-l.quit:
			return
		}
	}
}

// enter runs fn either inline (FreeThreaded) or on the confined drain
// goroutine (Confined), after waiting for the rate limiter.
func (l *Loader) enter(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := l.limit.Wait(ctx); err != nil {
		return nil, err
	}
	if l.impl.Threading() == FreeThreaded {
		return fn()
	}
	t := task{run: fn, done: make(chan taskResult, 1)}
	select {
	case l.taskQueue <- t:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-t.done:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Initialize runs the backend's Initialize exactly once.
func (l *Loader) Initialize(ctx context.Context, config []byte) error {
	l.mu.Lock()
	if l.initialized {
		l.mu.Unlock()
		return nil
	}
	l.initialized = true
	l.mu.Unlock()

	_, err := l.enter(ctx, func() (any, error) {
		return nil, l.impl.Initialize(ctx, config)
	})
	return err
}

// ExecutionPath adds a search path and records it for introspection.
func (l *Loader) ExecutionPath(ctx context.Context, path string) error {
	_, err := l.enter(ctx, func() (any, error) {
		return nil, l.impl.ExecutionPath(ctx, path)
	})
	if err == nil {
		l.mu.Lock()
		l.execPaths = append(l.execPaths, path)
		l.mu.Unlock()
	}
	return err
}

// ExecutionPaths returns every search path added so far.
func (l *Loader) ExecutionPaths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.execPaths))
	copy(out, l.execPaths)
	return out
}

// load runs do, wraps its result in a new Handle, discovers the loaded
// module into the handle's context, and publishes the handle in the
// handle table if vis is Public.
func (l *Loader) load(ctx context.Context, kind LoadKind, name string, vis Visibility, do func() (any, error)) (*Handle, error) {
	raw, err := l.enter(ctx, do)
	if err != nil {
		return nil, NewLoadError(l.Tag, kind, name, err)
	}
	h := newHandle(name, l.Tag, vis, raw)
	if err := l.discover(ctx, h); err != nil {
		return nil, err
	}
	if vis == Public {
		l.mu.Lock()
		l.handles[name] = h
		l.mu.Unlock()
	}
	return h, nil
}

func (l *Loader) discover(ctx context.Context, h *Handle) error {
	_, err := l.enter(ctx, func() (any, error) {
		return nil, l.impl.Discover(ctx, h.backendState, h.Context)
	})
	return err
}

// LoadFromFile loads paths into a new handle named name: load, discover
// its public surface, then publicize the handle if vis is Public.
func (l *Loader) LoadFromFile(ctx context.Context, name string, paths []string, vis Visibility) (*Handle, error) {
	return l.load(ctx, LoadFromFile, name, vis, func() (any, error) {
		return l.impl.LoadFromFile(ctx, paths)
	})
}

// LoadFromMemory loads an in-memory source buffer into a new handle.
func (l *Loader) LoadFromMemory(ctx context.Context, name string, source []byte, vis Visibility) (*Handle, error) {
	return l.load(ctx, LoadFromMemory, name, vis, func() (any, error) {
		return l.impl.LoadFromMemory(ctx, name, source)
	})
}

// LoadFromPackage loads a compiled artifact into a new handle.
func (l *Loader) LoadFromPackage(ctx context.Context, name, path string, vis Visibility) (*Handle, error) {
	return l.load(ctx, LoadFromPackage, name, vis, func() (any, error) {
		return l.impl.LoadFromPackage(ctx, path)
	})
}

// loadGlobal runs do and discovers its result directly into l.Global,
// without creating or publishing a Handle.
func (l *Loader) loadGlobal(ctx context.Context, kind LoadKind, name string, do func() (any, error)) error {
	raw, err := l.enter(ctx, do)
	if err != nil {
		return NewLoadError(l.Tag, kind, name, err)
	}
	_, err = l.enter(ctx, func() (any, error) {
		return nil, l.impl.Discover(ctx, raw, l.Global)
	})
	return err
}

// LoadFromFileGlobal loads paths and discovers their symbols directly
// into the loader's global scope.
func (l *Loader) LoadFromFileGlobal(ctx context.Context, paths []string) error {
	return l.loadGlobal(ctx, LoadFromFile, "<global>", func() (any, error) {
		return l.impl.LoadFromFile(ctx, paths)
	})
}

// LoadFromMemoryGlobal loads an in-memory buffer into the loader's global scope.
func (l *Loader) LoadFromMemoryGlobal(ctx context.Context, name string, source []byte) error {
	return l.loadGlobal(ctx, LoadFromMemory, name, func() (any, error) {
		return l.impl.LoadFromMemory(ctx, name, source)
	})
}

// LoadFromPackageGlobal loads a compiled artifact into the loader's global scope.
func (l *Loader) LoadFromPackageGlobal(ctx context.Context, path string) error {
	return l.loadGlobal(ctx, LoadFromPackage, path, func() (any, error) {
		return l.impl.LoadFromPackage(ctx, path)
	})
}

// Clear unloads h: it calls the backend's Clear, then destroys h's
// context and removes it from the handle table if it was public.
func (l *Loader) Clear(ctx context.Context, h *Handle) error {
	_, err := l.enter(ctx, func() (any, error) {
		return nil, l.impl.Clear(ctx, h.backendState)
	})
	h.Context.Destroy()
	l.mu.Lock()
	if l.handles[h.Name] == h {
		delete(l.handles, h.Name)
	}
	l.mu.Unlock()
	return err
}

// Handle returns the public handle registered under name, if any.
func (l *Loader) Handle(name string) (*Handle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.handles[name]
	return h, ok
}

// Handles returns every public handle this loader currently owns.
func (l *Loader) Handles() []*Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Handle, 0, len(l.handles))
	for _, h := range l.handles {
		out = append(out, h)
	}
	return out
}

// Destroy empties the handle table and destroys every public handle's
// context and the Global context, then calls the backend's Destroy, and
// finally stops the drain goroutine (if Confined).
func (l *Loader) Destroy(ctx context.Context) error {
	l.mu.Lock()
	handles := l.handles
	l.handles = nil
	l.mu.Unlock()
	for _, h := range handles {
		h.Context.Destroy()
	}
	l.Global.Destroy()

	_, err := l.enter(ctx, func() (any, error) {
		return nil, l.impl.Destroy(ctx)
	})

	if l.taskQueue != nil {
		close(l.quit)
		l.wg.Wait()
	}
	return err
}
