// Package errors defines the session layer's error taxonomy: transport
// failures, protocol violations, an unreachable peer, a request that timed
// out, and a remote exception surfaced as a local error.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrorType classifies a SessionError for the Is* predicates below.
type ErrorType string

const (
	// ErrorTypeTransport indicates the underlying Transport failed to send
	// or receive a frame.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeProtocol indicates a frame violated the envelope or state
	// machine contract (malformed payload, message out of sequence).
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypePeerUnreachable indicates the remote service address has no
	// listener, reported from a session's sticky transport-error flag.
	ErrorTypePeerUnreachable ErrorType = "peer_unreachable"
	// ErrorTypeTimeout indicates RequestRecv's wait exceeded its deadline
	// with no reply.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeRemoteException indicates the remote application handler
	// itself raised an exception, reported back as a RESULT STATUS.
	ErrorTypeRemoteException ErrorType = "remote_exception"
)

// SessionError is the error shape every operation in the session layer
// returns: a classification, a message, and an optional wrapped cause.
type SessionError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is/As against it.
func (e *SessionError) Unwrap() error {
	return e.Cause
}

// NewTransportError wraps a Transport-layer Send/Recv failure.
func NewTransportError(message string, cause error) *SessionError {
	return &SessionError{Type: ErrorTypeTransport, Message: message, Cause: cause}
}

// NewProtocolError reports a malformed frame or a message that arrived out
// of sequence for the session's current state.
func NewProtocolError(message string, cause error) *SessionError {
	return &SessionError{Type: ErrorTypeProtocol, Message: message, Cause: cause}
}

// NewPeerUnreachableError reports that the remote service named in a
// request could not be reached.
func NewPeerUnreachableError(service string) *SessionError {
	return &SessionError{Type: ErrorTypePeerUnreachable, Message: fmt.Sprintf("peer unreachable: %s", service)}
}

// NewTimeoutError reports that a pending request's reply did not arrive
// before its deadline.
func NewTimeoutError(threadTrace uint64) *SessionError {
	return &SessionError{Type: ErrorTypeTimeout, Message: fmt.Sprintf("request %d timed out", threadTrace)}
}

// NewRemoteExceptionError wraps a STATUS/RESULT the remote peer flagged as
// an exception.
func NewRemoteExceptionError(statusName, statusText string) *SessionError {
	return &SessionError{
		Type:    ErrorTypeRemoteException,
		Message: fmt.Sprintf("%s: %s", statusName, statusText),
	}
}

// IsTransport reports whether err is (or wraps) a transport failure.
func IsTransport(err error) bool { return hasType(err, ErrorTypeTransport) }

// IsProtocol reports whether err is (or wraps) a protocol violation.
func IsProtocol(err error) bool { return hasType(err, ErrorTypeProtocol) }

// IsPeerUnreachable reports whether err is (or wraps) an unreachable-peer
// error.
func IsPeerUnreachable(err error) bool { return hasType(err, ErrorTypePeerUnreachable) }

// IsTimeout reports whether err is (or wraps) a request timeout.
func IsTimeout(err error) bool { return hasType(err, ErrorTypeTimeout) }

// IsRemoteException reports whether err is (or wraps) a remote exception.
func IsRemoteException(err error) bool { return hasType(err, ErrorTypeRemoteException) }

func hasType(err error, t ErrorType) bool {
	var sessErr *SessionError
	if pkgerrors.As(err, &sessErr) {
		return sessErr.Type == t
	}
	return false
}
