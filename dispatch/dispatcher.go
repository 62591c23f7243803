package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/metacall/metacall-go/loader"
	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/telemetry"
	"github.com/metacall/metacall-go/value"
)

// Dispatcher is the public entry point implementing the four load_from_*
// flows, metacallv_s, metacallhv_s, metacallfv_s, plus await, inspect,
// and destroy.
type Dispatcher struct {
	registry *loader.Registry
	tokens   *tokens
	obs      *observability
}

// New creates a Dispatcher wrapping registry. tel wires structured
// logging, metrics, and tracing around load/invoke/await/destroy; pass
// telemetry.Noop() to discard them.
func New(registry *loader.Registry, tel telemetry.Set) *Dispatcher {
	return &Dispatcher{registry: registry, tokens: newTokens(), obs: newObservability(tel)}
}

// NewCallerToken allocates a CallerToken for LastError. Callers intending
// to inspect fatal init/load errors should keep one token per logical
// caller and pass it to every Dispatcher call.
func (d *Dispatcher) NewCallerToken() CallerToken { return d.tokens.New() }

// LastError returns the most recent fatal error recorded against tok: a
// failed initialize or load_from_* returns nil plus sets this instead of
// raising a host-language exception.
func (d *Dispatcher) LastError(tok CallerToken) (error, bool) { return d.tokens.Get(tok) }

func (d *Dispatcher) fail(tok CallerToken, err error) error {
	d.tokens.Set(tok, err)
	return err
}

// LoadFromFile implements metacall_load_from_file: it locates (or lazily
// initializes) the loader for tag, loads paths, and discovers into a
// handle named handleName, or into the loader's global scope if
// handleName is empty.
func (d *Dispatcher) LoadFromFile(ctx context.Context, tok CallerToken, tag, handleName string, paths []string, vis loader.Visibility) (*loader.Handle, error) {
	spanCtx, start, span := d.obs.startOp(ctx, opLoad, tag)
	h, err := d.loadFromFile(spanCtx, tok, tag, handleName, paths, vis)
	d.obs.endOp(spanCtx, start, span, opLoad, tag, err)
	return h, err
}

func (d *Dispatcher) loadFromFile(ctx context.Context, tok CallerToken, tag, handleName string, paths []string, vis loader.Visibility) (*loader.Handle, error) {
	l, err := d.registry.Loader(ctx, tag, nil)
	if err != nil {
		return nil, d.fail(tok, err)
	}
	if handleName == "" {
		if err := l.LoadFromFileGlobal(ctx, paths); err != nil {
			return nil, d.fail(tok, err)
		}
		return nil, nil
	}
	h, err := l.LoadFromFile(ctx, handleName, paths, vis)
	if err != nil {
		return nil, d.fail(tok, err)
	}
	return h, nil
}

// LoadFromMemory implements metacall_load_from_memory, symmetric to LoadFromFile.
func (d *Dispatcher) LoadFromMemory(ctx context.Context, tok CallerToken, tag, handleName string, source []byte, vis loader.Visibility) (*loader.Handle, error) {
	spanCtx, start, span := d.obs.startOp(ctx, opLoad, tag)
	h, err := d.loadFromMemory(spanCtx, tok, tag, handleName, source, vis)
	d.obs.endOp(spanCtx, start, span, opLoad, tag, err)
	return h, err
}

func (d *Dispatcher) loadFromMemory(ctx context.Context, tok CallerToken, tag, handleName string, source []byte, vis loader.Visibility) (*loader.Handle, error) {
	l, err := d.registry.Loader(ctx, tag, nil)
	if err != nil {
		return nil, d.fail(tok, err)
	}
	if handleName == "" {
		if err := l.LoadFromMemoryGlobal(ctx, "<memory>", source); err != nil {
			return nil, d.fail(tok, err)
		}
		return nil, nil
	}
	h, err := l.LoadFromMemory(ctx, handleName, source, vis)
	if err != nil {
		return nil, d.fail(tok, err)
	}
	return h, nil
}

// LoadFromPackage implements metacall_load_from_package, symmetric to LoadFromFile.
func (d *Dispatcher) LoadFromPackage(ctx context.Context, tok CallerToken, tag, handleName, path string, vis loader.Visibility) (*loader.Handle, error) {
	spanCtx, start, span := d.obs.startOp(ctx, opLoad, tag)
	h, err := d.loadFromPackage(spanCtx, tok, tag, handleName, path, vis)
	d.obs.endOp(spanCtx, start, span, opLoad, tag, err)
	return h, err
}

func (d *Dispatcher) loadFromPackage(ctx context.Context, tok CallerToken, tag, handleName, path string, vis loader.Visibility) (*loader.Handle, error) {
	l, err := d.registry.Loader(ctx, tag, nil)
	if err != nil {
		return nil, d.fail(tok, err)
	}
	if handleName == "" {
		if err := l.LoadFromPackageGlobal(ctx, path); err != nil {
			return nil, d.fail(tok, err)
		}
		return nil, nil
	}
	h, err := l.LoadFromPackage(ctx, handleName, path, vis)
	if err != nil {
		return nil, d.fail(tok, err)
	}
	return h, nil
}

// resolve implements the lookup half of metacallv_s step 1: name is
// either a bare symbol (searched across every loader's global scope, in
// initialization order) or "handle.symbol" (searched in that specific
// handle's context, across every loader since handle names are process-
// unique by convention).
func (d *Dispatcher) resolve(name string) (*value.Value, error) {
	if handleName, symbol, ok := splitDotted(name); ok {
		for _, tag := range d.registry.Tags() {
			l, ok := d.registry.Lookup(tag)
			if !ok {
				continue
			}
			if h, ok := l.Handle(handleName); ok {
				if v, ok := h.Context.Root().Get(symbol); ok {
					return v, nil
				}
			}
		}
	}
	for _, tag := range d.registry.Tags() {
		l, ok := d.registry.Lookup(tag)
		if !ok {
			continue
		}
		if v, ok := l.Global.Root().Get(name); ok {
			return v, nil
		}
	}
	return nil, ErrSymbolNotFound
}

// splitDotted splits name on its first '.', reporting ok=false if name
// has no dot (a bare symbol).
func splitDotted(name string) (prefix, suffix string, ok bool) {
	i := strings.IndexByte(name, '.')
	if i < 0 {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}

// CallV implements metacallv_s: resolve name, coerce args to the
// resolved entity's signature, and discriminate on entity kind. A dotted
// name whose prefix is not a handle is retried as "qualifier.member": if
// the qualifier resolves to an Object, member is invoked as a method on
// it; if it resolves to a Class, member is invoked as a static method.
func (d *Dispatcher) CallV(ctx context.Context, tok CallerToken, name string, args []*value.Value) (*value.Value, error) {
	spanCtx, start, span := d.obs.startOp(ctx, opInvoke, name)
	v, err := d.callV(spanCtx, name, args)
	d.obs.endOp(spanCtx, start, span, opInvoke, name, err)
	return v, err
}

func (d *Dispatcher) callV(ctx context.Context, name string, args []*value.Value) (*value.Value, error) {
	v, err := d.resolve(name)
	if err != nil {
		if qualifier, member, ok := splitDotted(name); ok {
			if qv, qerr := d.resolve(qualifier); qerr == nil {
				return d.invokeQualified(ctx, qv, member, args)
			}
		}
		return nil, err
	}
	return d.invokeEntity(ctx, v, args)
}

func (d *Dispatcher) invokeQualified(ctx context.Context, qualifier *value.Value, member string, args []*value.Value) (*value.Value, error) {
	ent, err := qualifier.AsEntity()
	if err != nil {
		return nil, ErrNotCallable
	}
	switch e := ent.(type) {
	case *reflect.Object:
		return e.Call(ctx, member, args)
	case *reflect.Class:
		return e.InvokeStaticMethod(member, args)
	default:
		return nil, ErrNotCallable
	}
}

// invokeEntity discriminates on the resolved value's kind and performs
// the matching call.
func (d *Dispatcher) invokeEntity(ctx context.Context, v *value.Value, args []*value.Value) (*value.Value, error) {
	ent, err := v.AsEntity()
	if err != nil {
		return nil, ErrNotCallable
	}
	switch e := ent.(type) {
	case *reflect.Function:
		if e.Signature != nil && e.Signature.HasInvalidSlot() && !e.Signature.Variadic() {
			return nil, fmt.Errorf("dispatch: function %q has an unresolved (TYPE_INVALID) type in its signature: %w", e.Name, ErrNotCallable)
		}
		coerced, err := coerceArgs(e.Signature, args)
		if err != nil {
			return reflect.NewThrowableFromException(reflect.TypeErrorException(err.Error())), nil
		}
		return e.Call(ctx, coerced)
	case *reflect.Class:
		ctor, err := e.ResolveConstructor(args)
		if err != nil {
			return nil, err
		}
		obj, err := e.New("", ctor, args)
		if err != nil {
			return nil, err
		}
		return value.CreateEntity(obj), nil
	case *reflect.Object:
		return nil, fmt.Errorf("dispatch: bare object values are not directly callable; qualify with a method name")
	default:
		return nil, ErrNotCallable
	}
}

// coerceArgs applies value.Cast to every argument whose id does not
// already match its signature slot. A slot carrying a TYPE_INVALID
// placeholder passes its argument through unchanged — a deliberate,
// documented reading of an otherwise-unspecified edge case, not a guess
// (see DESIGN.md).
func coerceArgs(sig *reflect.Signature, args []*value.Value) ([]*value.Value, error) {
	if sig == nil || sig.Arity() != len(args) {
		return args, nil
	}
	out := make([]*value.Value, len(args))
	for i, a := range args {
		slot := sig.Arg(i)
		if slot.Type == nil || slot.Type.IsPlaceholder() || a.ID() == slot.Type.ID {
			out[i] = a
			continue
		}
		cv, err := value.Cast(a, slot.Type.ID)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

// InvokeHandleV implements metacallhv_s: resolve symbol only within h's
// own context, never falling back to any loader's global scope.
func (d *Dispatcher) InvokeHandleV(ctx context.Context, h *loader.Handle, symbol string, args []*value.Value) (*value.Value, error) {
	spanCtx, start, span := d.obs.startOp(ctx, opInvoke, h.Name+"."+symbol)
	v, ok := h.Context.Root().Get(symbol)
	if !ok {
		d.obs.endOp(spanCtx, start, span, opInvoke, h.Name+"."+symbol, ErrSymbolNotFound)
		return nil, ErrSymbolNotFound
	}
	res, err := d.invokeEntity(spanCtx, v, args)
	d.obs.endOp(spanCtx, start, span, opInvoke, h.Name+"."+symbol, err)
	return res, err
}

// InvokeFunctionV implements metacallfv_s: the caller already holds the
// function value (e.g. returned earlier from CallV or InvokeHandleV), so
// no name resolution is needed.
func (d *Dispatcher) InvokeFunctionV(ctx context.Context, fn *value.Value, args []*value.Value) (*value.Value, error) {
	spanCtx, start, span := d.obs.startOp(ctx, opInvoke, "<function>")
	res, err := d.invokeEntity(spanCtx, fn, args)
	d.obs.endOp(spanCtx, start, span, opInvoke, "<function>", err)
	return res, err
}

// Await resolves name like CallV's first lookup (a bare symbol or
// "handle.symbol") but returns a Future instead of blocking. It has no
// "qualifier.member" fallback, applies no argument coercion or signature
// check, and accepts only a Function (anything else yields ErrNotCallable).
func (d *Dispatcher) Await(ctx context.Context, name string, args []*value.Value, resolve, reject func(*value.Value)) (*reflect.Future, error) {
	spanCtx, start, span := d.obs.startOp(ctx, opAwait, name)
	fut, err := d.await(name, args, resolve, reject)
	d.obs.endOp(spanCtx, start, span, opAwait, name, err)
	return fut, err
}

func (d *Dispatcher) await(name string, args []*value.Value, resolve, reject func(*value.Value)) (*reflect.Future, error) {
	v, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	ent, err := v.AsEntity()
	if err != nil {
		return nil, ErrNotCallable
	}
	fn, ok := ent.(*reflect.Function)
	if !ok {
		return nil, ErrNotCallable
	}
	return fn.Await(args, resolve, reject)
}

// Destroy tears down every loader known to the registry, in
// reverse-initialization order.
func (d *Dispatcher) Destroy(ctx context.Context) error {
	spanCtx, start, span := d.obs.startOp(ctx, opDestroy, "")
	err := d.registry.DestroyAll(spanCtx)
	d.obs.endOp(spanCtx, start, span, opDestroy, "", err)
	return err
}
