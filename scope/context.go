package scope

import "sync"

// Context owns a root Scope and every child Scope spawned from it. A
// Context outlives every Scope inside it; destruction walks every owned
// scope bottom-up, children before parents.
type Context struct {
	mu       sync.Mutex
	root     *Scope
	children []*Scope
}

// NewContext creates a Context with a fresh root scope.
func NewContext() *Context {
	return &Context{root: New(nil)}
}

// Root returns the context's root scope.
func (c *Context) Root() *Scope { return c.root }

// Spawn creates a new child scope whose parent is parent (or the
// context's root, if parent is nil), and records it as owned by the
// context so Destroy reaches it.
func (c *Context) Spawn(parent *Scope) *Scope {
	if parent == nil {
		parent = c.root
	}
	child := New(parent)
	c.mu.Lock()
	c.children = append(c.children, child)
	c.mu.Unlock()
	return child
}

// Destroy releases every scope owned by the context, children first and
// the root last.
func (c *Context) Destroy() {
	c.mu.Lock()
	children := c.children
	c.children = nil
	c.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].destroy()
	}
	c.root.destroy()
}
