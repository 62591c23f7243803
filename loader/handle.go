package loader

import (
	"github.com/google/uuid"

	"github.com/metacall/metacall-go/scope"
)

// Visibility controls whether a Handle is reachable by name from outside
// its originating call: Public handles can be looked up by name later,
// Private handles are returned only to the caller that created them.
type Visibility int

const (
	Public Visibility = iota
	Private
)

// Handle is a named unit of code loaded through some loader: {name,
// owning loader tag, context, backend state}.
type Handle struct {
	// ID is a random UUID assigned when the handle is created; it
	// identifies this handle across log lines, independent of its
	// (reused) Name.
	ID         string
	Name       string
	Tag        string
	Visibility Visibility
	Context    *scope.Context

	backendState any
}

func newHandle(name, tag string, vis Visibility, backendState any) *Handle {
	return &Handle{
		ID:           uuid.NewString(),
		Name:         name,
		Tag:          tag,
		Visibility:   vis,
		Context:      scope.NewContext(),
		backendState: backendState,
	}
}
