// Package loader implements the per-language backend interface and the
// process-wide loader registry: a Loader wraps a loader.Impl backend
// behind a cooperative, rate-limited task queue for thread-confined
// backends, and loader.Registry keyed by language tag tracks
// initialization order and enforces reverse-order destroy.
package loader

import (
	"context"
	"errors"

	"github.com/metacall/metacall-go/scope"
)

// ErrUnsupported is returned by every UnsupportedImpl method, i.e. by any
// Impl operation a backend embeds UnsupportedImpl for and does not
// override.
var ErrUnsupported = errors.New("loader: operation not supported by this backend")

// Threading describes whether a backend may only be entered from the
// thread/goroutine that initialized it (Confined) or may be entered
// concurrently from any goroutine (FreeThreaded)
type Threading int

const (
	Confined Threading = iota
	FreeThreaded
)

// Impl is the backend vtable every loader plugs in. A backend that
// supports only some operations embeds UnsupportedImpl and overrides the
// rest; Registry and Loader call the methods directly and do not
// substitute anything themselves.
type Impl interface {
	// Initialize is called once on first use, with the JSON configuration
	// blob (if any) the registry loaded for this tag.
	Initialize(ctx context.Context, config []byte) error
	// ExecutionPath adds a search path the backend consults when resolving
	// load_from_file/load_from_package requests.
	ExecutionPath(ctx context.Context, path string) error
	// LoadFromFile loads one or more source files into a handle.
	LoadFromFile(ctx context.Context, paths []string) (backendState any, err error)
	// LoadFromMemory loads source held in a buffer, named for diagnostics.
	LoadFromMemory(ctx context.Context, name string, source []byte) (backendState any, err error)
	// LoadFromPackage loads a pre-compiled artifact.
	LoadFromPackage(ctx context.Context, path string) (backendState any, err error)
	// Clear unloads the handle whose backend state is passed back in.
	Clear(ctx context.Context, backendState any) error
	// Discover enumerates the loaded module's public surface and defines
	// every function/class/value it finds into ctx via scope.Define.
	Discover(ctx context.Context, backendState any, into *scope.Context) error
	// Destroy is the backend's last operation before the Loader is torn down.
	Destroy(ctx context.Context) error
	// Threading reports whether this backend must be entered from a single
	// confined goroutine or may be entered freely.
	Threading() Threading
}

// UnsupportedImpl implements every Impl method by returning
// ErrUnsupported (Threading reports FreeThreaded). Concrete backends
// embed it as a base and override only the operations they support,
// without every backend having to hand-write every stub.
type UnsupportedImpl struct{}

func (UnsupportedImpl) Initialize(context.Context, []byte) error { return ErrUnsupported }
func (UnsupportedImpl) ExecutionPath(context.Context, string) error { return ErrUnsupported }
func (UnsupportedImpl) LoadFromFile(context.Context, []string) (any, error) {
	return nil, ErrUnsupported
}
func (UnsupportedImpl) LoadFromMemory(context.Context, string, []byte) (any, error) {
	return nil, ErrUnsupported
}
func (UnsupportedImpl) LoadFromPackage(context.Context, string) (any, error) {
	return nil, ErrUnsupported
}
func (UnsupportedImpl) Clear(context.Context, any) error { return ErrUnsupported }
func (UnsupportedImpl) Discover(context.Context, any, *scope.Context) error {
	return ErrUnsupported
}
func (UnsupportedImpl) Destroy(context.Context) error   { return ErrUnsupported }
func (UnsupportedImpl) Threading() Threading            { return FreeThreaded }
