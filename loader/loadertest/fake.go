// Package loadertest provides an in-process fake loader.Impl for
// exercising dispatch.Dispatcher and loader.Registry behavior without
// embedding a real guest-language runtime. The fake exercises the exact
// same vtable contract a real backend would.
package loadertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/metacall/metacall-go/loader"
	"github.com/metacall/metacall-go/reflect"
	"github.com/metacall/metacall-go/scope"
	"github.com/metacall/metacall-go/value"
)

// ModuleFunc describes one function a fake module exposes.
type ModuleFunc struct {
	Name      string
	Async     bool
	Signature *reflect.Signature
	Invoke    func(args []*value.Value) (*value.Value, error)
	Await     func(args []*value.Value, resolve, reject func(*value.Value)) (*reflect.Future, error)
}

// ModuleClass describes one class a fake module exposes.
type ModuleClass struct {
	Name     string
	Accessor reflect.AccessorMode
	VTable   *reflect.ClassVTable
	Ctors    []*reflect.Constructor
	Methods  map[string][]*reflect.Method
	Attrs    map[string]*reflect.Attribute
}

// Module is a named unit a fake backend can load from a file/memory/package request.
type Module struct {
	Name    string
	Funcs   []ModuleFunc
	Classes []ModuleClass
}

// Fake is a loader.Impl whose "source files" are Go-native Module
// descriptions registered ahead of time via Register, keyed by the name
// the test's LoadFromFile/Memory/Package call passes in.
type Fake struct {
	loader.UnsupportedImpl

	mu      sync.Mutex
	modules map[string]*Module

	initialized bool
}

// New creates an empty Fake backend.
func New() *Fake {
	return &Fake{modules: make(map[string]*Module)}
}

// Register makes m loadable under m.Name.
func (f *Fake) Register(m *Module) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modules[m.Name] = m
}

func (f *Fake) Initialize(context.Context, []byte) error {
	f.mu.Lock()
	f.initialized = true
	f.mu.Unlock()
	return nil
}

func (f *Fake) ExecutionPath(context.Context, string) error { return nil }

func (f *Fake) LoadFromFile(_ context.Context, paths []string) (any, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("loadertest: no paths given")
	}
	return f.resolve(paths[0])
}

func (f *Fake) LoadFromMemory(_ context.Context, name string, _ []byte) (any, error) {
	return f.resolve(name)
}

func (f *Fake) LoadFromPackage(_ context.Context, path string) (any, error) {
	return f.resolve(path)
}

func (f *Fake) resolve(name string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.modules[name]
	if !ok {
		return nil, fmt.Errorf("loadertest: no module registered for %q", name)
	}
	return m, nil
}

func (f *Fake) Clear(context.Context, any) error { return nil }

func (f *Fake) Discover(_ context.Context, backendState any, into *scope.Context) error {
	m, ok := backendState.(*Module)
	if !ok {
		return fmt.Errorf("loadertest: invalid backend state")
	}
	root := into.Root()
	for _, fn := range m.Funcs {
		vtable := &reflect.FunctionVTable{}
		if invoke := fn.Invoke; invoke != nil {
			vtable.Invoke = func(_ any, args []*value.Value) (*value.Value, error) { return invoke(args) }
		}
		if await := fn.Await; await != nil {
			vtable.Await = func(_ any, args []*value.Value, resolve, reject func(*value.Value)) (*reflect.Future, error) {
				return await(args, resolve, reject)
			}
		}
		root.Define(fn.Name, value.CreateEntity(reflect.NewFunction(fn.Name, fn.Async, fn.Signature, nil, vtable)))
	}
	for _, cls := range m.Classes {
		c := reflect.NewClass(cls.Name, cls.Accessor, nil, cls.VTable)
		c.Constructors = cls.Ctors
		if cls.Methods != nil {
			c.Methods = cls.Methods
		}
		if cls.Attrs != nil {
			c.Attributes = cls.Attrs
		}
		root.Define(cls.Name, value.CreateEntity(c))
	}
	return nil
}

func (f *Fake) Destroy(context.Context) error { return nil }

func (f *Fake) Threading() loader.Threading { return loader.FreeThreaded }
