// Package dispatch implements the public load/invoke/await/introspect/
// destroy operations: it selects a loader by tag, resolves a dotted
// symbol name against handle and global scopes, coerces arguments to a
// signature's declared types, and discriminates on the resolved entity's
// kind (function, class, object) to decide how to invoke it.
package dispatch

import (
	"errors"

	"github.com/metacall/metacall-go/loader"
)

// ErrNoSuchLoader is returned when a tag has no registered backend. It is
// the same sentinel loader.Registry.Loader wraps for an unregistered tag, so
// errors.Is(err, dispatch.ErrNoSuchLoader) matches whether err came back
// from the registry directly or through a Dispatcher call.
var ErrNoSuchLoader = loader.ErrNoSuchLoader

// ErrSymbolNotFound is returned when a name does not resolve to any
// entity in a named handle's context or in any loader's global scope.
var ErrSymbolNotFound = errors.New("dispatch: symbol not found")

// ErrNotCallable is returned when a resolved entity cannot be invoked,
// awaited, or constructed the way the caller asked.
var ErrNotCallable = errors.New("dispatch: resolved value is not callable")
