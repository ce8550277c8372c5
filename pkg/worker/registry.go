package worker

import (
	"context"
	"sync"
)

// Handler consumes a task's payload and produces a result or a failure.
type Handler func(ctx context.Context, payload map[string]any) (any, error)

// Registry maps a task kind to its handler. Mutation after the pool has
// started is a non-goal, but if callers do it anyway it is guarded by the
// same mutual-exclusion discipline as the result store's internal
// mutations.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry constructs an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register associates kind with handler, replacing any prior registration.
func (r *Registry) Register(kind string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

// Lookup returns the handler registered for kind, if any.
func (r *Registry) Lookup(kind string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}
