// Package router is a minimal in-process Application method registry,
// implementing the transport.Application calling convention a
// server-side session's dispatcher forwards REQUESTs to.
package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/opensrf-go/gosrf/internal/domain/transport"
)

// Method is an application method implementation. It is expected to call
// session.Respond/RespondComplete/Status before returning; a returned
// error only produces a top-level failure STATUS (see the dispatcher's
// doServer), it does not itself send a reply.
type Method func(ctx context.Context, session transport.Responder, threadTrace uint64, params []any) error

// Router is a transport.Application backed by a name-to-Method table.
type Router struct {
	mu      sync.RWMutex
	methods map[string]Method
}

// New constructs an empty Router.
func New() *Router {
	return &Router{methods: make(map[string]Method)}
}

// Register binds name to fn, overwriting any previous binding.
func (r *Router) Register(name string, fn Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = fn
}

// Invoke implements transport.Application: it looks method up and calls
// it, or returns an error if no such method is registered. service is
// accepted for interface compatibility but this Router does not partition
// methods by service name; a deployment wanting per-service registries
// constructs one Router per service.
func (r *Router) Invoke(ctx context.Context, service, method string, session transport.Responder, threadTrace uint64, params []any) error {
	r.mu.RLock()
	fn, ok := r.methods[method]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("router: no such method %q", method)
	}
	return fn(ctx, session, threadTrace, params)
}
