package errors

import "fmt"

// RequestNotFoundError indicates a thread trace has no matching entry in a
// session's request table (a reply arrived, or RequestFinish was called,
// for a request that was never inserted or was already removed).
type RequestNotFoundError struct {
	ThreadTrace uint64
}

// Error returns the error message.
func (e *RequestNotFoundError) Error() string {
	return fmt.Sprintf("request not found: thread trace %d", e.ThreadTrace)
}
