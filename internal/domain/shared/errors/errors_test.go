package errors

import (
	"fmt"
	"testing"
)

func TestErrorTypes(t *testing.T) {
	if ErrorTypeTransport != "transport" {
		t.Errorf("expected ErrorTypeTransport to be 'transport', got '%s'", ErrorTypeTransport)
	}
	if ErrorTypeProtocol != "protocol" {
		t.Errorf("expected ErrorTypeProtocol to be 'protocol', got '%s'", ErrorTypeProtocol)
	}
	if ErrorTypePeerUnreachable != "peer_unreachable" {
		t.Errorf("expected ErrorTypePeerUnreachable to be 'peer_unreachable', got '%s'", ErrorTypePeerUnreachable)
	}
	if ErrorTypeTimeout != "timeout" {
		t.Errorf("expected ErrorTypeTimeout to be 'timeout', got '%s'", ErrorTypeTimeout)
	}
	if ErrorTypeRemoteException != "remote_exception" {
		t.Errorf("expected ErrorTypeRemoteException to be 'remote_exception', got '%s'", ErrorTypeRemoteException)
	}
}

func TestNewTransportError(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewTransportError("send failed", cause)

	if err.Type != ErrorTypeTransport {
		t.Errorf("expected Type %q, got %q", ErrorTypeTransport, err.Type)
	}
	if err.Cause != cause {
		t.Errorf("expected Cause %v, got %v", cause, err.Cause)
	}
	if !IsTransport(err) {
		t.Error("IsTransport should return true for transport errors")
	}
	if IsProtocol(err) {
		t.Error("IsProtocol should return false for transport errors")
	}
}

func TestNewPeerUnreachableError(t *testing.T) {
	err := NewPeerUnreachableError("opensrf.math")
	if !IsPeerUnreachable(err) {
		t.Error("IsPeerUnreachable should return true")
	}
	if err.Message == "" {
		t.Error("expected a non-empty message naming the service")
	}
}

func TestNewTimeoutError(t *testing.T) {
	err := NewTimeoutError(42)
	if !IsTimeout(err) {
		t.Error("IsTimeout should return true")
	}
}

func TestNewRemoteExceptionError(t *testing.T) {
	err := NewRemoteExceptionError("osrfMethodException", "method not found")
	if !IsRemoteException(err) {
		t.Error("IsRemoteException should return true")
	}
}

func TestErrorWithoutCause(t *testing.T) {
	msg := "error without cause"
	err := &SessionError{Type: ErrorTypeProtocol, Message: msg}

	expected := fmt.Sprintf("%s: %s", ErrorTypeProtocol, msg)
	if err.Error() != expected {
		t.Errorf("expected error message %q, got %q", expected, err.Error())
	}
}

func TestErrorWithCause(t *testing.T) {
	msg := "error with cause"
	cause := fmt.Errorf("original error")
	err := &SessionError{Type: ErrorTypeProtocol, Message: msg, Cause: cause}

	expected := fmt.Sprintf("%s: %s: %v", ErrorTypeProtocol, msg, cause)
	if err.Error() != expected {
		t.Errorf("expected error message %q, got %q", expected, err.Error())
	}
}

func TestIsErrorTypeCheckers(t *testing.T) {
	transportErr := NewTransportError("transport", nil)
	protocolErr := NewProtocolError("protocol", nil)
	peerErr := NewPeerUnreachableError("svc")
	timeoutErr := NewTimeoutError(1)
	remoteErr := NewRemoteExceptionError("X", "Y")
	regularErr := fmt.Errorf("regular error")

	all := []error{transportErr, protocolErr, peerErr, timeoutErr, remoteErr, regularErr}

	checkers := map[string]func(error) bool{
		"transport": IsTransport,
		"protocol":  IsProtocol,
		"peer":      IsPeerUnreachable,
		"timeout":   IsTimeout,
		"remote":    IsRemoteException,
	}
	want := map[string]error{
		"transport": transportErr,
		"protocol":  protocolErr,
		"peer":      peerErr,
		"timeout":   timeoutErr,
		"remote":    remoteErr,
	}

	for name, check := range checkers {
		for _, candidate := range all {
			got := check(candidate)
			expect := candidate == want[name]
			if got != expect {
				t.Errorf("%s check on %v: got %v, want %v", name, candidate, got, expect)
			}
		}
	}
}
