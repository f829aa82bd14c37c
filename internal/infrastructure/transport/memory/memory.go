// Package memory implements an in-process transport.Transport over a bus
// of buffered mailboxes keyed by address. It stands in for a real message
// broker client: tests, the conformance scenarios, and the demo cmd/
// programs all run against it instead of a live broker.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opensrf-go/gosrf/internal/domain/transport"
)

const mailboxBuffer = 64

// Bus is a process-wide registry of mailboxes. Connect binds a new
// Transport to an address, creating its mailbox if this is the first
// connection at that address.
type Bus struct {
	mu        sync.Mutex
	mailboxes map[string]chan transport.Frame
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{mailboxes: make(map[string]chan transport.Frame)}
}

// Connect binds a Transport to address on this bus, creating the mailbox
// if it does not already exist.
func (b *Bus) Connect(address string) *Transport {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.mailboxes[address]; !ok {
		b.mailboxes[address] = make(chan transport.Frame, mailboxBuffer)
	}
	return &Transport{bus: b, address: address, connected: true}
}

// deliver places frame on the recipient's mailbox. If the recipient has no
// mailbox, it bounces a synthetic transport-error frame back to the
// sender, simulating an unreachable peer on a real bus.
func (b *Bus) deliver(frame transport.Frame) {
	b.mu.Lock()
	mailbox, ok := b.mailboxes[frame.To]
	var senderBox chan transport.Frame
	if !ok {
		senderBox, ok = b.mailboxes[frame.From]
	}
	b.mu.Unlock()

	if mailbox != nil {
		select {
		case mailbox <- frame:
		default:
		}
		return
	}
	if senderBox != nil {
		bounce := transport.Frame{
			From:    frame.To,
			To:      frame.From,
			Thread:  frame.Thread,
			IsError: true,
			Body:    fmt.Sprintf("no such address: %s", frame.To),
		}
		select {
		case senderBox <- bounce:
		default:
		}
	}
}

// Transport is one bus connection: a bound address and its mailbox.
type Transport struct {
	bus       *Bus
	address   string
	mu        sync.Mutex
	connected bool
}

// Send delivers frame through the bus. The From field is stamped with this
// transport's own bound address, overriding anything the caller set.
func (t *Transport) Send(ctx context.Context, frame transport.Frame) error {
	if !t.Connected() {
		return fmt.Errorf("memory transport: %s is closed", t.address)
	}
	frame.From = t.address
	t.bus.deliver(frame)
	return nil
}

// Recv blocks for at most timeout seconds waiting for a frame addressed to
// this transport. A zero timeout polls without blocking; a negative
// timeout blocks until ctx is done.
func (t *Transport) Recv(ctx context.Context, timeoutSeconds int) (*transport.Frame, error) {
	t.bus.mu.Lock()
	mailbox := t.bus.mailboxes[t.address]
	t.bus.mu.Unlock()
	if mailbox == nil {
		return nil, fmt.Errorf("memory transport: %s has no mailbox", t.address)
	}

	if timeoutSeconds == 0 {
		select {
		case f := <-mailbox:
			return &f, nil
		default:
			return nil, nil
		}
	}

	var timeout <-chan time.Time
	if timeoutSeconds > 0 {
		timer := time.NewTimer(time.Duration(timeoutSeconds) * time.Second)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case f := <-mailbox:
		return &f, nil
	case <-timeout:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Connected reports whether this transport is still open, i.e. Close has
// not been called on it.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Address returns the bus address this transport is bound to.
func (t *Transport) Address() string {
	return t.address
}

// Close marks the transport disconnected; further Sends fail.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.connected = false
	t.mu.Unlock()
	return nil
}
