package dispatch

import "sync"

// CallerToken substitutes for the thread-local error slot MetaCall's C
// implementation keeps per calling thread (readable there through
// metacall_error_last). Go has no equivalent to a TLS slot tied to the
// current goroutine, so the dispatcher hands every caller an explicit
// token up front; LastError is keyed by that token instead of by the
// calling thread. This is a deliberate deviation from the literal C ABI,
// recorded in DESIGN.md.
type CallerToken uint64

// tokens generates CallerTokens and stores the most recent error recorded
// against each one.
type tokens struct {
	mu     sync.Mutex
	next   uint64
	errors map[CallerToken]error
}

func newTokens() *tokens {
	return &tokens{errors: make(map[CallerToken]error)}
}

// New allocates a fresh CallerToken with no recorded error.
func (t *tokens) New() CallerToken {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	return CallerToken(t.next)
}

// Set records err as the last error for tok. Passing a nil err clears it.
func (t *tokens) Set(tok CallerToken, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err == nil {
		delete(t.errors, tok)
		return
	}
	t.errors[tok] = err
}

// Get returns the last error recorded for tok, if any.
func (t *tokens) Get(tok CallerToken) (error, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	err, ok := t.errors[tok]
	return err, ok
}
