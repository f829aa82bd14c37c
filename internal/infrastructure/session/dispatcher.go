package session

import (
	"context"

	"github.com/opensrf-go/gosrf/internal/domain/codec"
	"github.com/opensrf-go/gosrf/internal/domain/message"
	domerrors "github.com/opensrf-go/gosrf/internal/domain/shared/errors"
	"github.com/opensrf-go/gosrf/internal/domain/transport"
	"github.com/opensrf-go/gosrf/internal/infrastructure/logging"
)

// Dispatcher is the protocol engine: it drains the Transport, decodes
// envelopes, routes each Message through the client-side or server-side
// state machine, and invokes either a Request's reply queue or the
// Application handler. The dispatcher itself never suspends mid-frame —
// it runs to completion on whatever the transport handed it;
// the suspension points are in Session's Connect/Disconnect/RequestRecv/
// MakeRequest/SendBatch, all of which call drainOnce in a loop.
type Dispatcher struct {
	transport   transport.Transport
	registry    *Registry
	application transport.Application
	serviceName string
	logger      *logging.Logger
}

// NewDispatcher builds a Dispatcher bound to a transport and registry.
// serviceName is the service name a lazily adopted server-side session is
// bound to; pass "" for a client-only dispatcher that
// drops frames with no matching session. application may be nil for a
// client-only dispatcher, since it is only consulted for inbound REQUEST
// messages on server-side sessions.
func NewDispatcher(trans transport.Transport, registry *Registry, serviceName string, application transport.Application, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		transport:   trans,
		registry:    registry,
		application: application,
		serviceName: serviceName,
		logger:      logger,
	}
}

// drainOnce receives and fully processes at most one transport frame,
// blocking for up to timeoutSeconds. It reports whether a frame was
// processed.
func (d *Dispatcher) drainOnce(ctx context.Context, timeoutSeconds int) (bool, error) {
	frame, err := d.transport.Recv(ctx, timeoutSeconds)
	if err != nil {
		return false, domerrors.NewTransportError("recv failed", err)
	}
	if frame == nil {
		return false, nil
	}

	d.processFrame(ctx, frame)
	return true, nil
}

// Pump drains and processes every frame the transport currently has ready,
// coalescing but never waiting past the first iteration's budget: the
// caller's timeout applies to the first Recv, zero to every subsequent one.
func (d *Dispatcher) Pump(ctx context.Context, timeoutSeconds int) error {
	processed, err := d.drainOnce(ctx, timeoutSeconds)
	if err != nil || !processed {
		return err
	}
	for {
		processed, err := d.drainOnce(ctx, 0)
		if err != nil {
			return err
		}
		if !processed {
			return nil
		}
	}
}

func (d *Dispatcher) processFrame(ctx context.Context, frame *transport.Frame) {
	if frame.Thread == "" {
		if !frame.IsError {
			return
		}
		d.logger.Warn("transport error frame with no conversation thread, dropping")
		return
	}

	sess, ok := d.registry.Lookup(frame.Thread)
	if !ok {
		if d.serviceName == "" {
			return
		}
		sess = newServerSession(d, d.registry, frame.Thread, frame.From, d.serviceName, d.logger)
	}

	sess.setRemoteID(frame.From)

	xid := frame.OsrfXid
	if xid == "" {
		xid = newXid()
	}
	ctx = logging.WithXid(ctx, xid)
	logging.LogFrameReceived(ctx, frame.From, frame.Thread, len(frame.Body))

	if frame.IsError {
		d.handleTransportErrorFrame(ctx, sess)
		return
	}

	msgs, err := codec.Decode(frame.Body)
	if err != nil {
		d.logger.WarnContext(ctx, "dropping frame with malformed envelope", logging.Fields{"error": err.Error()})
		return
	}

	for _, m := range msgs {
		d.dispatchMessage(ctx, sess, m)
	}
}

// handleTransportErrorFrame handles a bounced transport-layer error, which
// carries no decodable envelope, so there is no single Message to inspect;
// this dispatcher reads the ambiguous case as meaning the failure applies
// to the session as a whole: if the session had already moved off its
// original peer, every request still in flight is redirected and resent;
// if it had not, the session's sticky transport-error flag is set and no
// request is resent.
func (d *Dispatcher) handleTransportErrorFrame(ctx context.Context, sess *Session) {
	if sess.RemoteID() != sess.OrigRemoteID() {
		d.redirectAll(ctx, sess)
		return
	}
	sess.setTransportError(true)
}

func (d *Dispatcher) redirectAll(ctx context.Context, sess *Session) {
	sess.resetToOrigAndDisconnect()
	for _, req := range sess.requests.all() {
		if payload := req.Payload(); payload != nil {
			if err := d.resend(ctx, sess, payload); err != nil {
				d.logger.WarnContext(ctx, "resend after redirect failed", logging.Fields{"error": err.Error()})
			}
		}
	}
}

func (d *Dispatcher) resend(ctx context.Context, sess *Session, payload *message.Message) error {
	return sess.SendBatch(ctx, []*message.Message{payload})
}

func (d *Dispatcher) dispatchMessage(ctx context.Context, sess *Session, m *message.Message) {
	switch sess.Type() {
	case Client:
		d.doClient(ctx, sess, m)
	case Server:
		d.doServer(ctx, sess, m)
	}
}

// doClient implements the client-side dispatch branch: STATUS messages
// drive the connection state machine, RESULT messages feed the
// originating Request's reply queue.
func (d *Dispatcher) doClient(ctx context.Context, sess *Session, m *message.Message) {
	switch m.Kind {
	case message.Status:
		d.doClientStatus(ctx, sess, m)
	case message.Result:
		if req, ok := sess.requests.lookup(m.ThreadTrace); ok {
			req.pushReply(m)
		}
	}
}

func (d *Dispatcher) doClientStatus(ctx context.Context, sess *Session, m *message.Message) {
	switch m.StatusCode {
	case message.StatusOK:
		sess.setState(Connected)

	case message.StatusComplete:
		if req, ok := sess.requests.lookup(m.ThreadTrace); ok {
			req.markComplete()
		}

	case message.StatusContinue:
		if req, ok := sess.requests.lookup(m.ThreadTrace); ok {
			req.markResetTimeout()
		}

	case message.StatusRedirected:
		sess.resetToOrigAndDisconnect()
		if req, ok := sess.requests.lookup(m.ThreadTrace); ok {
			if err := d.resend(ctx, sess, req.Payload()); err != nil {
				d.logger.WarnContext(ctx, "resend after redirect failed", logging.Fields{"error": err.Error()})
			}
		}

	case message.StatusExpFailed:
		sess.resetToOrigAndDisconnect()

	case message.StatusTimeout:
		sess.resetToOrigAndDisconnect()
		if req, ok := sess.requests.lookup(m.ThreadTrace); ok {
			if err := d.resend(ctx, sess, req.Payload()); err != nil {
				d.logger.WarnContext(ctx, "resend after timeout failed", logging.Fields{"error": err.Error()})
			}
		}

	default:
		// Unknown status: synthesize an exception RESULT and mark the
		// request complete rather than leaving the caller waiting forever.
		exc := message.NewExceptionResult(m)
		if req, ok := sess.requests.lookup(m.ThreadTrace); ok {
			req.pushReply(exc)
			req.markComplete()
		}
	}
}

// doServer implements the server-side dispatch branch: CONNECT and
// DISCONNECT drive the adopted session's state, REQUEST is forwarded to
// the registered Application.
func (d *Dispatcher) doServer(ctx context.Context, sess *Session, m *message.Message) {
	switch m.Kind {
	case message.Connect:
		sess.setState(Connected)
		if err := sess.Status(ctx, m.ThreadTrace, "osrfConnectStatus", "Connection Successful", int(message.StatusOK)); err != nil {
			d.logger.WarnContext(ctx, "failed to ack CONNECT", logging.Fields{"error": err.Error()})
		}

	case message.Disconnect:
		sess.setState(Disconnected)

	case message.Request:
		if d.application == nil {
			return
		}
		if err := d.application.Invoke(ctx, sess.RemoteService(), m.MethodName, sess, m.ThreadTrace, m.Params); err != nil {
			if statusErr := sess.Status(ctx, m.ThreadTrace, "osrfMethodException", err.Error(), int(message.StatusExpFailed)); statusErr != nil {
				d.logger.WarnContext(ctx, "failed to report method failure", logging.Fields{"error": statusErr.Error()})
			}
		}

	case message.Status:
		// ignored on the server side: only a client ever acts on STATUS.

	default:
		d.logger.WarnContext(ctx, "unrecognized message kind, disconnecting", logging.Fields{"kind": string(m.Kind)})
		sess.setState(Disconnected)
	}
}
