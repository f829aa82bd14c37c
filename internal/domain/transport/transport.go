// Package transport defines the external collaborators a session depends
// on but does not implement: the message bus (Transport) and the
// application method registry (Application). Concrete implementations
// live outside this package (see internal/infrastructure/transport/memory
// and pkg/router) so that this package, and the session package that
// depends on it, never import either.
package transport

import "context"

// Frame is one inbound or outbound unit of transport traffic: an envelope
// body addressed to or from a bus address, on a conversation thread.
type Frame struct {
	From    string
	To      string
	Thread  string
	Body    string
	OsrfXid string
	IsError bool
}

// Transport is the message-bus collaborator a session sits on top of. Only
// Recv may block for up to the given timeout; Send, Connected and Address
// never suspend the calling goroutine, matching the single
// blocking-point discipline the session's dispatcher relies on.
type Transport interface {
	// Send transmits a single frame. It does not wait for delivery
	// confirmation.
	Send(ctx context.Context, frame Frame) error

	// Recv blocks for at most timeout seconds waiting for the next frame
	// destined for this transport's bound address. A zero timeout polls
	// without blocking; a negative timeout blocks indefinitely. Returns
	// nil, nil on timeout with nothing received.
	Recv(ctx context.Context, timeout int) (*Frame, error)

	// Connected reports whether the underlying bus connection is up.
	Connected() bool

	// Address is the bus address this transport is bound to.
	Address() string
}

// Responder is the subset of Session behavior the Application calling
// convention needs to answer a REQUEST. internal/infrastructure/session.Session
// satisfies this structurally; this package never imports the session
// package, which is what keeps the dependency graph acyclic.
type Responder interface {
	Respond(ctx context.Context, threadTrace uint64, content any) error
	RespondComplete(ctx context.Context, threadTrace uint64, content any) error
	Status(ctx context.Context, threadTrace uint64, name, text string, code int) error
	SessionID() string
	RemoteService() string
}

// Application is the method registry a server-side session forwards
// REQUEST messages to. Invoke is expected to call Respond/RespondComplete
// (or Status, on failure) on the given Responder itself; its own return
// error is used only to synthesize a top-level failure STATUS when the
// method could not even be located or invoked.
type Application interface {
	Invoke(ctx context.Context, service, method string, session Responder, threadTrace uint64, params []any) error
}
