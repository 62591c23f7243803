package loader

import (
	"errors"
	"fmt"
)

// ErrNoSuchLoader is returned when a tag has no registered backend
// factory. dispatch.ErrNoSuchLoader is the same sentinel, re-exported for
// callers that only import the dispatch package.
var ErrNoSuchLoader = errors.New("loader: no backend registered for tag")

// InitError describes a failed backend Initialize call: the tag whose
// factory produced the backend, and the underlying error it returned.
// Modeled on the provider/tool error types the port's ambient stack is
// grounded on: a typed, chained value callers can inspect with
// errors.As, not a bare string.
type InitError struct {
	Tag   string
	cause error
}

// NewInitError wraps cause as an InitError for tag.
func NewInitError(tag string, cause error) *InitError {
	return &InitError{Tag: tag, cause: cause}
}

func (e *InitError) Error() string {
	return fmt.Sprintf("loader: initializing %q: %s", e.Tag, e.cause)
}

// Unwrap returns the underlying initialization failure.
func (e *InitError) Unwrap() error { return e.cause }

// AsInitError returns the first InitError in err's chain, if any.
func AsInitError(err error) (*InitError, bool) {
	var ie *InitError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// LoadKind distinguishes which load_from_* entry point a LoadError came from.
type LoadKind string

const (
	LoadFromFile    LoadKind = "load_from_file"
	LoadFromMemory  LoadKind = "load_from_memory"
	LoadFromPackage LoadKind = "load_from_package"
)

// LoadError describes a failed load_from_file/memory/package call: the
// owning loader tag, which entry point was used, the handle name (or
// source name for in-memory loads) being loaded, and the underlying
// backend error.
type LoadError struct {
	Tag   string
	Kind  LoadKind
	Name  string
	cause error
}

// NewLoadError wraps cause as a LoadError for the given loader/kind/name.
func NewLoadError(tag string, kind LoadKind, name string, cause error) *LoadError {
	return &LoadError{Tag: tag, Kind: kind, Name: name, cause: cause}
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loader %q: %s %q: %s", e.Tag, e.Kind, e.Name, e.cause)
}

// Unwrap returns the underlying backend load failure.
func (e *LoadError) Unwrap() error { return e.cause }

// AsLoadError returns the first LoadError in err's chain, if any.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
