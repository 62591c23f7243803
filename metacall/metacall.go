// Package metacall is the top-level facade: idiomatic Go method names
// wrapping the value, loader, dispatch, and serial packages, the same
// way MetaCall's own per-language ports wrap its C ABI into each host
// language's idiom rather than re-exposing raw C names. A caller
// constructs a Runtime, registers the loader.Impl backends it has
// (guest-language runtimes are genuinely external collaborators this
// module does not ship), and drives everything else through Runtime's
// methods.
package metacall

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/metacall/metacall-go/config"
	"github.com/metacall/metacall-go/dispatch"
	"github.com/metacall/metacall-go/loader"
	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/telemetry"
	"github.com/metacall/metacall-go/value"
)

// Visibility re-exports loader.Visibility so callers need only import
// this package for the common case.
type Visibility = loader.Visibility

const (
	Public  = loader.Public
	Private = loader.Private
)

// CallerToken re-exports dispatch.CallerToken.
type CallerToken = dispatch.CallerToken

// Runtime bundles a loader registry, its dispatcher, and a telemetry set
// into the single object an embedder constructs once per process.
type Runtime struct {
	Registry   *loader.Registry
	Dispatcher *dispatch.Dispatcher
	Telemetry  telemetry.Set
}

// New constructs a Runtime from cfg. If cfg is nil, config.Load is called
// to read it from the environment. tel may be nil, in which case
// telemetry.Noop() is used.
func New(cfg *config.Config, tel *telemetry.Set) (*Runtime, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("metacall: load configuration: %w", err)
		}
		cfg = loaded
	}

	set := telemetry.Noop()
	if tel != nil {
		set = *tel
	}

	reg := loader.NewRegistry(registryDefaultRate(cfg), registryDefaultBurst(cfg), set)
	return &Runtime{
		Registry:   reg,
		Dispatcher: dispatch.New(reg, set),
		Telemetry:  set,
	}, nil
}

// registryDefaultRate/registryDefaultBurst seed loader.NewRegistry's
// process-wide default: the first configured loader manifest's rate
// limit, or unlimited if none is configured. Per-tag overrides (when
// manifests disagree) are intentionally out of scope for loader.Registry,
// which applies one default to every backend it lazily constructs.
func registryDefaultRate(cfg *config.Config) rate.Limit {
	if cfg == nil || len(cfg.Loaders) == 0 {
		return rate.Inf
	}
	return cfg.Loaders[0].RateLimitValue()
}

func registryDefaultBurst(cfg *config.Config) int {
	if cfg == nil || len(cfg.Loaders) == 0 || cfg.Loaders[0].Burst <= 0 {
		return 1
	}
	return cfg.Loaders[0].Burst
}

// NewCallerToken allocates a CallerToken for this Runtime's dispatcher,
// used to scope LastError lookups per logical caller.
func (r *Runtime) NewCallerToken() CallerToken { return r.Dispatcher.NewCallerToken() }

// LastError returns the most recent fatal error recorded against tok.
func (r *Runtime) LastError(tok CallerToken) (error, bool) { return r.Dispatcher.LastError(tok) }

// RegisterLoader associates tag with a backend factory, constructed
// lazily on first use.
func (r *Runtime) RegisterLoader(tag string, factory loader.Factory) {
	r.Registry.RegisterFactory(tag, factory)
}

// LoadFromFile loads paths under tag into a handle named handleName (or
// into the loader's global scope if handleName is empty).
func (r *Runtime) LoadFromFile(ctx context.Context, tok CallerToken, tag, handleName string, paths []string, vis Visibility) (*loader.Handle, error) {
	return r.Dispatcher.LoadFromFile(ctx, tok, tag, handleName, paths, vis)
}

// LoadFromMemory loads source held in a buffer under tag.
func (r *Runtime) LoadFromMemory(ctx context.Context, tok CallerToken, tag, handleName string, source []byte, vis Visibility) (*loader.Handle, error) {
	return r.Dispatcher.LoadFromMemory(ctx, tok, tag, handleName, source, vis)
}

// LoadFromPackage loads a pre-compiled artifact under tag.
func (r *Runtime) LoadFromPackage(ctx context.Context, tok CallerToken, tag, handleName, path string, vis Visibility) (*loader.Handle, error) {
	return r.Dispatcher.LoadFromPackage(ctx, tok, tag, handleName, path, vis)
}

// CallV resolves name (a bare symbol or "handle.symbol") and invokes it
// synchronously, coercing an Asynchronous function's future by blocking
// on it.
func (r *Runtime) CallV(ctx context.Context, tok CallerToken, name string, args []*value.Value) (*value.Value, error) {
	return r.Dispatcher.CallV(ctx, tok, name, args)
}

// Await resolves name and invokes it asynchronously, returning a Future
// immediately. resolve/reject are optional settlement callbacks.
func (r *Runtime) Await(ctx context.Context, name string, args []*value.Value, resolve, reject func(*value.Value)) (*reflect.Future, error) {
	return r.Dispatcher.Await(ctx, name, args, resolve, reject)
}

// Inspect renders every loader's handles into the introspection document
// described in the external interfaces section: a map from loader tag to
// its handles' {"name","scope"} entries.
func (r *Runtime) Inspect() ([]byte, error) { return r.Dispatcher.Inspect() }

// Destroy tears down every loader in reverse-initialization order.
func (r *Runtime) Destroy(ctx context.Context) error { return r.Dispatcher.Destroy(ctx) }

// ValueCreateBool wraps value.CreateBool.
func ValueCreateBool(b bool) *value.Value { return value.CreateBool(b) }

// ValueCreateChar wraps value.CreateChar.
func ValueCreateChar(c byte) *value.Value { return value.CreateChar(c) }

// ValueCreateShort wraps value.CreateShort.
func ValueCreateShort(s int16) *value.Value { return value.CreateShort(s) }

// ValueCreateInt wraps value.CreateInt.
func ValueCreateInt(i int32) *value.Value { return value.CreateInt(i) }

// ValueCreateLong wraps value.CreateLong.
func ValueCreateLong(l int64) *value.Value { return value.CreateLong(l) }

// ValueCreateFloat wraps value.CreateFloat.
func ValueCreateFloat(f float32) *value.Value { return value.CreateFloat(f) }

// ValueCreateDouble wraps value.CreateDouble.
func ValueCreateDouble(d float64) *value.Value { return value.CreateDouble(d) }

// ValueCreateString wraps value.CreateString.
func ValueCreateString(s string) *value.Value { return value.CreateString(s) }

// ValueCreateBuffer wraps value.CreateBuffer.
func ValueCreateBuffer(b []byte) *value.Value { return value.CreateBuffer(b) }

// ValueCreateNull wraps value.CreateNull.
func ValueCreateNull() *value.Value { return value.CreateNull() }

// ValueCreateArray wraps value.CreateArray.
func ValueCreateArray(elems []*value.Value) *value.Value { return value.CreateArray(elems) }

// ValueCreateMap wraps value.CreateMap.
func ValueCreateMap(pairs []value.Pair) *value.Value { return value.CreateMap(pairs) }
