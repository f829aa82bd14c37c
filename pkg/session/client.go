// Package session is the public facade over the internal protocol engine:
// Client opens outbound conversations to a remote service, Server runs the
// inbound dispatch loop and application method registry for one. Most
// callers only need this package and pkg/router; internal/infrastructure/session
// is the engine underneath both.
package session

import (
	"context"

	"github.com/opensrf-go/gosrf/internal/domain/message"
	domerrors "github.com/opensrf-go/gosrf/internal/domain/shared/errors"
	"github.com/opensrf-go/gosrf/internal/domain/transport"
	"github.com/opensrf-go/gosrf/internal/infrastructure/logging"
	infrasession "github.com/opensrf-go/gosrf/internal/infrastructure/session"
)

// Reply is the RESULT a client receives from RequestRecv.
type Reply = message.Message

// Client is one outbound conversation to a remote service. Its blocking
// methods (Connect, MakeRequest, RequestRecv, Disconnect) drive trans's
// inbound loop themselves; a Client does not need a separate Serve loop the
// way a Server does.
type Client struct {
	sess *infrasession.Session
}

// NewClient opens a client-side session addressed at remoteAddress for
// remoteService, over trans. A stateless client skips CONNECT/DISCONNECT
// handshakes entirely and addresses every send to remoteAddress.
func NewClient(trans transport.Transport, remoteAddress, remoteService string, stateless bool, logger *logging.Logger) *Client {
	registry := infrasession.NewRegistry()
	dispatcher := infrasession.NewDispatcher(trans, registry, "", nil, logger)
	return &Client{sess: infrasession.NewClientSession(dispatcher, registry, remoteAddress, remoteService, stateless, logger)}
}

// SessionID returns the client's session id.
func (c *Client) SessionID() string {
	return c.sess.SessionID()
}

// Connect opens a stateful connection, blocking until CONNECTED or
// timeoutSeconds elapses.
func (c *Client) Connect(ctx context.Context, timeoutSeconds int) error {
	return c.sess.Connect(ctx, timeoutSeconds)
}

// Disconnect tears down a stateful connection. It does not wait for an
// acknowledgement.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.sess.Disconnect(ctx)
}

// MakeRequest sends a method call and returns the thread trace used to
// retrieve its replies via RequestRecv. A bare (non-slice) params value is
// wrapped into a one-element sequence rather than rejected.
func (c *Client) MakeRequest(ctx context.Context, method string, params any, locale string) (uint64, error) {
	return c.sess.MakeRequest(ctx, method, params, locale)
}

// RequestRecv blocks for the next reply to threadTrace, or until the
// request is reported COMPLETE (returning nil, nil) or timeoutSeconds
// elapses with nothing received.
func (c *Client) RequestRecv(ctx context.Context, threadTrace uint64, timeoutSeconds int) (*Reply, error) {
	return c.sess.RequestRecv(ctx, threadTrace, timeoutSeconds)
}

// RequestFinish retires a request, releasing its table entry. Call it once
// RequestRecv has returned COMPLETE or the caller no longer wants replies.
func (c *Client) RequestFinish(threadTrace uint64) {
	c.sess.RequestFinish(threadTrace)
}

// TransportError reports whether this client's peer was found unreachable.
func (c *Client) TransportError() bool {
	return c.sess.TransportError()
}

// Err returns a PeerUnreachable SessionError if this client's sticky
// transport-error flag is set, nil otherwise. It lets a caller fold the
// flag into ordinary Go error handling instead of polling TransportError.
func (c *Client) Err() error {
	if !c.sess.TransportError() {
		return nil
	}
	return domerrors.NewPeerUnreachableError(c.sess.RemoteService())
}

// AsError converts a reply flagged IsException by RequestRecv into a
// RemoteException SessionError, or returns nil for an ordinary reply.
func (c *Client) AsError(reply *Reply) error {
	if reply == nil || !reply.IsException {
		return nil
	}
	return domerrors.NewRemoteExceptionError(reply.StatusName, reply.StatusText)
}

// Close releases the session's resources and removes it from its registry.
// It does not notify the peer; call Disconnect first for a clean handshake.
func (c *Client) Close() {
	c.sess.Destroy()
}
