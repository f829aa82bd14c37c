package session

import (
	"container/list"
	"sync"

	"github.com/opensrf-go/gosrf/internal/domain/message"
)

// Request tracks one outstanding client-side REQUEST: its thread trace, the
// FIFO of RESULT messages received for it so far, whether the remote peer
// has reported it COMPLETE, and a one-shot flag that tells RequestRecv's
// wait loop a CONTINUE arrived and the timeout should restart.
//
// The C original threads the reply chain through a `next` pointer on each
// osrf_message; this instead gives Request its own queue, backed by
// container/list, so Message itself stays free of session bookkeeping.
type Request struct {
	mu sync.Mutex

	threadTrace  uint64
	payload      *message.Message
	replyQueue   *list.List
	complete     bool
	resetTimeout bool
}

func newRequest(threadTrace uint64) *Request {
	return &Request{
		threadTrace: threadTrace,
		replyQueue:  list.New(),
	}
}

// Payload returns the original REQUEST Message this Request was opened
// with, retained so a REDIRECTED or TIMEOUT status can resend it verbatim.
func (r *Request) Payload() *message.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payload
}

func (r *Request) setPayload(m *message.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payload = m
}

// pushReply enqueues a RESULT message for later consumption by RequestRecv.
// A CONTINUE status never reaches this queue: the dispatcher records it
// with markResetTimeout instead.
func (r *Request) pushReply(m *message.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replyQueue.PushBack(m)
}

// popReply dequeues the oldest queued reply, if any.
func (r *Request) popReply() (*message.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	front := r.replyQueue.Front()
	if front == nil {
		return nil, false
	}
	r.replyQueue.Remove(front)
	return front.Value.(*message.Message), true
}

// markComplete records that the remote peer reported this request COMPLETE.
// No more replies are expected after this.
func (r *Request) markComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete = true
}

// isComplete reports whether the request has been marked COMPLETE and has
// no more queued replies to drain.
func (r *Request) isComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete && r.replyQueue.Len() == 0
}

// markResetTimeout sets the one-shot flag a CONTINUE status sets: the next
// RequestRecv wait restarts its deadline instead of treating elapsed time
// as exhausted.
func (r *Request) markResetTimeout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetTimeout = true
}

// consumeResetTimeout reads and clears the one-shot reset_timeout flag.
func (r *Request) consumeResetTimeout() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.resetTimeout
	r.resetTimeout = false
	return v
}

// requestTable is a session's per-thread-trace index of outstanding
// requests: insert on MakeRequest, lookup on every inbound RESULT/STATUS,
// remove once RequestFinish retires a completed request.
type requestTable struct {
	mu   sync.RWMutex
	byID map[uint64]*Request
}

func newRequestTable() *requestTable {
	return &requestTable{byID: make(map[uint64]*Request)}
}

func (t *requestTable) insert(r *Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[r.threadTrace] = r
}

func (t *requestTable) lookup(threadTrace uint64) (*Request, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.byID[threadTrace]
	return r, ok
}

func (t *requestTable) remove(threadTrace uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byID, threadTrace)
}

// all returns a snapshot of every Request currently in the table, used by
// the dispatcher's transport-error handling to resend every in-flight
// request when a session that had already been redirected off its
// original peer gets a bounced frame.
func (t *requestTable) all() []*Request {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Request, 0, len(t.byID))
	for _, r := range t.byID {
		out = append(out, r)
	}
	return out
}
