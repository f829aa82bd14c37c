// Package session implements the session manager and protocol state
// machine: the Session itself (client- and server-side operations), its
// request table, the process-wide session registry, and the inbound-frame
// dispatcher that drives them all.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/opensrf-go/gosrf/internal/domain/codec"
	domerrors "github.com/opensrf-go/gosrf/internal/domain/shared/errors"
	"github.com/opensrf-go/gosrf/internal/domain/message"
	"github.com/opensrf-go/gosrf/internal/domain/transport"
	"github.com/opensrf-go/gosrf/internal/infrastructure/logging"
)

// Type distinguishes a client-originated session from one adopted
// server-side on first inbound frame.
type Type int

const (
	Client Type = iota
	Server
)

// State is the connection state a Session's client-side state machine
// moves through.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

// defaultConnectTimeoutSeconds is Connect's default bound when the caller
// passes a non-positive timeout.
const defaultConnectTimeoutSeconds = 5

// Session owns one conversation's request table and connection state.
type Session struct {
	mu sync.Mutex

	sessionID     string
	sessionType   Type
	state         State
	remoteID      string
	origRemoteID  string
	remoteService string
	sessionLocale string
	stateless     bool
	threadTrace   uint64
	transportErr  bool

	userData        any
	releaseUserData func(any)

	requests *requestTable
	trans    transport.Transport
	registry *Registry
	engine   *Dispatcher
	logger   *logging.Logger
}

// NewClientSession opens a client-side Session addressed at remoteAddress
// for remoteService, registers it in registry, and binds it to engine for
// driving its blocking operations. stateless sessions skip connect
// handshakes entirely.
func NewClientSession(engine *Dispatcher, registry *Registry, remoteAddress, remoteService string, stateless bool, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.Default()
	}
	sessionID := newSessionID()
	s := &Session{
		sessionID:     sessionID,
		sessionType:   Client,
		state:         Disconnected,
		remoteID:      remoteAddress,
		origRemoteID:  remoteAddress,
		remoteService: remoteService,
		stateless:     stateless,
		requests:      newRequestTable(),
		trans:         engine.transport,
		registry:      registry,
		engine:        engine,
		logger:        logging.WithSessionID(logger, sessionID),
	}
	registry.insert(s)
	return s
}

// newServerSession is the dispatcher's lazy-adoption constructor: an
// inbound frame whose thread does not resolve to an existing Session
// creates one.
func newServerSession(engine *Dispatcher, registry *Registry, sessionID, remoteAddress, remoteService string, logger *logging.Logger) *Session {
	s := &Session{
		sessionID:     sessionID,
		sessionType:   Server,
		state:         Disconnected,
		remoteID:      remoteAddress,
		origRemoteID:  remoteAddress,
		remoteService: remoteService,
		requests:      newRequestTable(),
		trans:         engine.transport,
		registry:      registry,
		engine:        engine,
		logger:        logging.WithSessionID(logger, sessionID),
	}
	registry.insert(s)
	return s
}

// SessionID returns the session's globally unique id.
func (s *Session) SessionID() string {
	return s.sessionID
}

// RemoteService returns the logical service name this session talks to
// (client side) or was adopted for (server side).
func (s *Session) RemoteService() string {
	return s.remoteService
}

// Type reports whether this is a client- or server-side session.
func (s *Session) Type() Type {
	return s.sessionType
}

// State returns the session's current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Stateless reports whether this session skips connect handshakes.
func (s *Session) Stateless() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateless
}

// RemoteID returns the peer address this session currently targets.
func (s *Session) RemoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteID
}

// OrigRemoteID returns the peer address this session was originally
// targeted at, used to distinguish a redirect from a top-level failure.
func (s *Session) OrigRemoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origRemoteID
}

func (s *Session) setRemoteID(addr string) {
	if addr == "" {
		return
	}
	s.mu.Lock()
	s.remoteID = addr
	s.mu.Unlock()
}

func (s *Session) resetToOrigAndDisconnect() {
	s.mu.Lock()
	s.remoteID = s.origRemoteID
	s.state = Disconnected
	s.mu.Unlock()
}

// TransportError reports the sticky peer-unreachable flag.
func (s *Session) TransportError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transportErr
}

func (s *Session) setTransportError(v bool) {
	s.mu.Lock()
	s.transportErr = v
	s.mu.Unlock()
	if v {
		s.logger.Warn("peer unreachable", logging.Fields{"orig_remote_id": s.OrigRemoteID()})
	}
}

// Locale returns the session's current locale, possibly adopted from a
// peer's sender_locale on the most recent receive.
func (s *Session) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionLocale
}

func (s *Session) adoptSenderLocale(m *message.Message) {
	if m.SenderLocale == "" {
		return
	}
	s.mu.Lock()
	s.sessionLocale = m.SenderLocale
	s.mu.Unlock()
}

// SetUserData stores an opaque application-owned value on the session. If
// release is non-nil it fires exactly once, at Destroy, mirroring
// osrf_app_session_free's userDataFree/userData pair.
func (s *Session) SetUserData(v any, release func(any)) {
	s.mu.Lock()
	s.userData = v
	s.releaseUserData = release
	s.mu.Unlock()
}

// UserData returns the value stored by SetUserData.
func (s *Session) UserData() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userData
}

// Destroy releases user_data via its owner-supplied hook, if any, and
// removes the session from its registry. It does not wait on or notify the
// peer; callers that want a clean handshake call Disconnect first.
func (s *Session) Destroy() {
	s.mu.Lock()
	data := s.userData
	release := s.releaseUserData
	s.userData = nil
	s.releaseUserData = nil
	s.mu.Unlock()

	if release != nil {
		release(data)
	}
	if s.registry != nil {
		s.registry.remove(s.sessionID)
	}
	s.logger.Debug("session destroyed")
}

// --- client-side operations ---

// MakeRequest mints a new thread trace, builds a REQUEST Message, records
// it in the request table and sends it, performing an implicit connect
// first if required. It returns the thread trace regardless of send
// failure so the caller can still call RequestFinish to clean up. A bare
// (non-slice) params value is wrapped into a one-element sequence; see
// Message.SetParams.
func (s *Session) MakeRequest(ctx context.Context, method string, params any, locale string) (uint64, error) {
	s.mu.Lock()
	s.threadTrace++
	trace := s.threadTrace
	s.mu.Unlock()

	msg := message.NewRequest(trace, message.DefaultProtocol, method, params)
	if locale != "" {
		msg.Locale = locale
	}

	req := newRequest(trace)
	req.setPayload(msg)
	s.requests.insert(req)

	if err := s.SendBatch(ctx, []*message.Message{msg}); err != nil {
		return trace, err
	}
	return trace, nil
}

// Connect is idempotent when already CONNECTED. Otherwise it transitions
// DISCONNECTED -> CONNECTING, sends a CONNECT Message, and pumps the
// shared transport loop until state becomes CONNECTED or timeoutSeconds
// elapses.
func (s *Session) Connect(ctx context.Context, timeoutSeconds int) error {
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultConnectTimeoutSeconds
	}

	if s.State() == Connected {
		return nil
	}

	s.mu.Lock()
	s.state = Connecting
	s.remoteID = s.origRemoteID
	trace := s.threadTrace
	s.mu.Unlock()

	msg := message.NewConnect(trace, message.DefaultProtocol)
	if err := s.SendBatch(ctx, []*message.Message{msg}); err != nil {
		return err
	}

	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	for {
		if s.State() == Connected {
			return nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		budget := int(remaining.Seconds())
		if budget <= 0 {
			budget = 1
		}
		if _, err := s.engine.drainOnce(ctx, budget); err != nil {
			return err
		}
		if time.Until(deadline) <= 0 {
			break
		}
	}

	if s.State() == Connected {
		return nil
	}
	return domerrors.NewTimeoutError(trace)
}

// Disconnect is a no-op if already DISCONNECTED, and a no-op on stateless
// sessions that are not currently CONNECTED. Otherwise it sends a
// DISCONNECT Message, unconditionally sets state to DISCONNECTED, and
// resets remote_id. It does not wait for an acknowledgement.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	state := s.state
	stateless := s.stateless
	trace := s.threadTrace
	s.mu.Unlock()

	if state == Disconnected {
		return nil
	}
	if stateless && state != Connected {
		return nil
	}

	msg := message.NewDisconnect(trace, message.DefaultProtocol)
	err := s.SendBatch(ctx, []*message.Message{msg})

	s.mu.Lock()
	s.state = Disconnected
	s.remoteID = s.origRemoteID
	s.mu.Unlock()

	return err
}

// RequestRecv is the blocking consumer for a single reply to threadTrace:
// drain whatever the reply queue already holds, then pump the shared
// transport loop, refreshing the wait budget
// whenever a CONTINUE is observed, until a reply arrives, the request is
// reported complete, or the budget is exhausted.
func (s *Session) RequestRecv(ctx context.Context, threadTrace uint64, timeoutSeconds int) (*message.Message, error) {
	req, ok := s.requests.lookup(threadTrace)
	if !ok {
		return nil, domerrors.NewProtocolError("unknown request", &domerrors.RequestNotFoundError{ThreadTrace: threadTrace})
	}

	if m, ok := req.popReply(); ok {
		s.adoptSenderLocale(m)
		return m, nil
	}

	// Phase 1: zero-timeout drain of anything already buffered.
	if _, err := s.engine.drainOnce(ctx, 0); err != nil {
		return nil, err
	}
	if m, ok := req.popReply(); ok {
		s.adoptSenderLocale(m)
		return m, nil
	}
	if req.isComplete() {
		return nil, nil
	}

	started := time.Now()
	deadline := started.Add(time.Duration(timeoutSeconds) * time.Second)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			logging.LogRequestTimeout(ctx, threadTrace, time.Since(started))
			return nil, nil
		}
		budget := int(remaining.Seconds())
		if budget <= 0 {
			budget = 1
		}
		if _, err := s.engine.drainOnce(ctx, budget); err != nil {
			return nil, err
		}

		if m, ok := req.popReply(); ok {
			s.adoptSenderLocale(m)
			return m, nil
		}
		if req.isComplete() {
			return nil, nil
		}
		if req.consumeResetTimeout() {
			deadline = time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
		}
	}
}

// RequestFinish removes the Request from the table.
func (s *Session) RequestFinish(threadTrace uint64) {
	s.requests.remove(threadTrace)
}

// --- server-side operations ---

// Respond sends a RESULT Message carrying content with statusCode OK.
func (s *Session) Respond(ctx context.Context, threadTrace uint64, content any) error {
	return s.SendBatch(ctx, []*message.Message{message.NewResult(threadTrace, message.DefaultProtocol, content)})
}

// RespondComplete sends Respond's RESULT (if content is non-nil) followed
// by a COMPLETE STATUS, in one transport frame. A nil content sends only
// the STATUS.
func (s *Session) RespondComplete(ctx context.Context, threadTrace uint64, content any) error {
	complete := message.NewStatus(threadTrace, message.DefaultProtocol, "osrfConnectStatus", "Request Complete", message.StatusComplete)

	if content == nil {
		return s.SendBatch(ctx, []*message.Message{complete})
	}

	result := message.NewResult(threadTrace, message.DefaultProtocol, content)
	return s.SendBatch(ctx, []*message.Message{result, complete})
}

// Status sends a standalone STATUS Message.
func (s *Session) Status(ctx context.Context, threadTrace uint64, name, text string, code int) error {
	return s.SendBatch(ctx, []*message.Message{message.NewStatus(threadTrace, message.DefaultProtocol, name, text, message.StatusCode(code))})
}

// --- outbound batching ---

// SendBatch encodes every Message in msgs into a single transport body and
// sends it as one frame, after a zero-timeout inbound drain and, if
// required, an implicit connect driven by the batch's first message.
func (s *Session) SendBatch(ctx context.Context, msgs []*message.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if s.engine != nil {
		if _, err := s.engine.drainOnce(ctx, 0); err != nil {
			return err
		}
	}

	if err := s.ensureConnectedForSend(ctx, msgs[0].Kind); err != nil {
		return err
	}

	s.mu.Lock()
	if s.stateless {
		s.remoteID = s.origRemoteID
	}
	remoteID := s.remoteID
	sessionID := s.sessionID
	s.mu.Unlock()

	body, err := codec.Encode(msgs)
	if err != nil {
		return domerrors.NewProtocolError("encode batch", err)
	}

	frame := transport.Frame{
		From:   s.trans.Address(),
		To:     remoteID,
		Thread: sessionID,
		Body:   body,
	}
	if err := s.trans.Send(ctx, frame); err != nil {
		s.setTransportError(true)
		return domerrors.NewTransportError("send batch", err)
	}
	logging.LogFrameSent(ctx, remoteID, sessionID, len(body))
	return nil
}

func (s *Session) ensureConnectedForSend(ctx context.Context, kind message.Kind) error {
	if kind == message.Connect || kind == message.Disconnect {
		return nil
	}
	if s.Stateless() {
		return nil
	}
	if s.State() == Connected {
		return nil
	}
	return s.Connect(ctx, defaultConnectTimeoutSeconds)
}
