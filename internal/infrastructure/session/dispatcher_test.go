package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensrf-go/gosrf/internal/domain/codec"
	"github.com/opensrf-go/gosrf/internal/domain/message"
	domerrors "github.com/opensrf-go/gosrf/internal/domain/shared/errors"
	"github.com/opensrf-go/gosrf/internal/domain/transport"
	"github.com/opensrf-go/gosrf/internal/infrastructure/logging"
	"github.com/opensrf-go/gosrf/internal/infrastructure/transport/memory"
)

// harness wires a client Session and a server Dispatcher (backed by the
// given Application) across an in-memory bus, with the server's inbound
// loop running in the background for the duration of the test, the way a
// real single-threaded server process would run its own Pump loop.
type harness struct {
	t      *testing.T
	bus    *memory.Bus
	client *Session
	ctx    context.Context
	cancel context.CancelFunc
}

func newHarness(t *testing.T, serverAddr, service string, app transport.Application) *harness {
	t.Helper()
	bus := memory.NewBus()
	clientTransport := bus.Connect("client@bus")
	serverTransport := bus.Connect(serverAddr)

	logger, err := logging.NewDevelopment()
	require.NoError(t, err)

	clientRegistry := NewRegistry()
	clientDispatcher := NewDispatcher(clientTransport, clientRegistry, "", nil, logger)

	serverRegistry := NewRegistry()
	serverDispatcher := NewDispatcher(serverTransport, serverRegistry, service, app, logger)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		for ctx.Err() == nil {
			_, _ = serverDispatcher.Pump(ctx, 1)
		}
	}()

	client := NewClientSession(clientDispatcher, clientRegistry, serverAddr, service, false, logger)

	return &harness{t: t, bus: bus, client: client, ctx: ctx, cancel: cancel}
}

func (h *harness) close() {
	h.cancel()
}

func TestHappyPathStatefulRequest(t *testing.T) {
	router := newEchoRouter()
	h := newHarness(t, "opensrf.echo@bus", "opensrf.echo", router)
	defer h.close()

	require.NoError(t, h.client.Connect(h.ctx, 2))

	trace, err := h.client.MakeRequest(h.ctx, "echo", []any{"hi"}, "")
	require.NoError(t, err)

	reply, err := h.client.RequestRecv(h.ctx, trace, 2)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "hi", reply.ResultContent)

	eos, err := h.client.RequestRecv(h.ctx, trace, 2)
	require.NoError(t, err)
	assert.Nil(t, eos)
}

func TestStatelessFastPath(t *testing.T) {
	router := newEchoRouter()
	bus := memory.NewBus()
	clientTransport := bus.Connect("client@bus")
	serverTransport := bus.Connect("opensrf.echo@bus")

	logger, err := logging.NewDevelopment()
	require.NoError(t, err)

	clientRegistry := NewRegistry()
	clientDispatcher := NewDispatcher(clientTransport, clientRegistry, "", nil, logger)
	serverRegistry := NewRegistry()
	serverDispatcher := NewDispatcher(serverTransport, serverRegistry, "opensrf.echo", router, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for ctx.Err() == nil {
			_, _ = serverDispatcher.Pump(ctx, 1)
		}
	}()

	client := NewClientSession(clientDispatcher, clientRegistry, "opensrf.echo@bus", "opensrf.echo", true, logger)
	assert.Equal(t, Disconnected, client.State())

	_, err = client.MakeRequest(ctx, "echo", []any{"x"}, "")
	require.NoError(t, err)

	// no CONNECT handshake should ever have taken place
	assert.Equal(t, Disconnected, client.State())
}

func TestBatchedRespondComplete(t *testing.T) {
	bus := memory.NewBus()
	clientTransport := bus.Connect("client@bus")
	serverTransport := bus.Connect("opensrf.echo@bus")
	logger, err := logging.NewDevelopment()
	require.NoError(t, err)

	registry := NewRegistry()
	dispatcher := NewDispatcher(serverTransport, registry, "opensrf.echo", nil, logger)
	server := newServerSession(dispatcher, registry, "thread-7", "client@bus", "opensrf.echo", logger)
	server.setState(Connected) // normally set by doServer on the inbound CONNECT

	require.NoError(t, server.RespondComplete(context.Background(), 7, 42))

	frame, err := clientTransport.Recv(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, frame)

	msgs, err := codec.Decode(frame.Body)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, message.Result, msgs[0].Kind)
	assert.Equal(t, 42.0, toFloat(t, msgs[0].ResultContent))
	assert.Equal(t, message.Status, msgs[1].Kind)
	assert.Equal(t, message.StatusComplete, msgs[1].StatusCode)
	assert.Equal(t, "osrfConnectStatus", msgs[1].StatusName)
}

func toFloat(t *testing.T, v any) float64 {
	t.Helper()
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		t.Fatalf("not a number: %v", v)
		return 0
	}
}

func TestTopLevelPeerFailure(t *testing.T) {
	bus := memory.NewBus()
	clientTransport := bus.Connect("client@bus")
	logger, err := logging.NewDevelopment()
	require.NoError(t, err)

	registry := NewRegistry()
	dispatcher := NewDispatcher(clientTransport, registry, "", nil, logger)
	client := NewClientSession(dispatcher, registry, "nobody@bus", "opensrf.nosuchservice", false, logger)

	err = client.Connect(context.Background(), 1)
	assert.Error(t, err)
	assert.True(t, domerrors.IsTimeout(err))
	assert.True(t, client.TransportError())
	assert.Equal(t, "nobody@bus", client.RemoteID())
}

// TestRedirectScenario drives a hand-rolled misbehaving peer that accepts
// the CONNECT handshake normally but answers the first REQUEST with a
// REDIRECTED status instead of a result. It exercises the client-side
// StatusRedirected branch: reset to the original address, implicit
// reconnect, and resend of the exact same REQUEST payload.
func TestRedirectScenario(t *testing.T) {
	bus := memory.NewBus()
	clientTransport := bus.Connect("client@bus")
	serverTransport := bus.Connect("svc@bus")
	logger, err := logging.NewDevelopment()
	require.NoError(t, err)

	registry := NewRegistry()
	dispatcher := NewDispatcher(clientTransport, registry, "", nil, logger)
	client := NewClientSession(dispatcher, registry, "svc@bus", "opensrf.test", false, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resent := make(chan *message.Message, 1)
	go func() {
		redirectedOnce := false
		for {
			frame, err := serverTransport.Recv(ctx, 2)
			if err != nil || frame == nil {
				return
			}
			msgs, err := codec.Decode(frame.Body)
			if err != nil || len(msgs) == 0 {
				continue
			}
			m := msgs[0]
			switch m.Kind {
			case message.Connect:
				ok, _ := codec.Encode([]*message.Message{
					message.NewStatus(m.ThreadTrace, message.DefaultProtocol, "osrfConnectStatus", "Connection Successful", message.StatusOK),
				})
				_ = serverTransport.Send(ctx, transport.Frame{To: frame.From, Thread: frame.Thread, Body: ok})
			case message.Request:
				if !redirectedOnce {
					redirectedOnce = true
					redirect, _ := codec.Encode([]*message.Message{
						message.NewStatus(m.ThreadTrace, message.DefaultProtocol, "osrfConnectStatus", "Redirected", message.StatusRedirected),
					})
					_ = serverTransport.Send(ctx, transport.Frame{To: frame.From, Thread: frame.Thread, Body: redirect})
					continue
				}
				resent <- m
				return
			}
		}
	}()

	require.NoError(t, client.Connect(ctx, 2))

	trace, err := client.MakeRequest(ctx, "echo", []any{"hi"}, "")
	require.NoError(t, err)

	// Drive the client's own inbound pump until the redirect, its implicit
	// reconnect, and the resend have all played out.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && len(resent) == 0 {
		_, err := dispatcher.drainOnce(ctx, 1)
		require.NoError(t, err)
	}

	got := <-resent
	assert.Equal(t, trace, got.ThreadTrace)
	assert.Equal(t, "echo", got.MethodName)
	assert.Equal(t, "svc@bus", client.RemoteID())
}

func TestContinueRefreshesTimeout(t *testing.T) {
	bus := memory.NewBus()
	clientTransport := bus.Connect("client@bus")
	serverTransport := bus.Connect("svc@bus")
	logger, err := logging.NewDevelopment()
	require.NoError(t, err)

	registry := NewRegistry()
	dispatcher := NewDispatcher(clientTransport, registry, "", nil, logger)
	client := NewClientSession(dispatcher, registry, "svc@bus", "opensrf.test", true, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trace, err := client.MakeRequest(ctx, "slow", nil, "")
	require.NoError(t, err)

	go func() {
		reqFrame, _ := serverTransport.Recv(ctx, 2)
		if reqFrame == nil {
			return
		}

		time.Sleep(800 * time.Millisecond)
		cont, _ := codec.Encode([]*message.Message{
			message.NewStatus(trace, message.DefaultProtocol, "osrfConnectStatus", "Continue", message.StatusContinue),
		})
		_ = serverTransport.Send(ctx, transport.Frame{To: reqFrame.From, Thread: reqFrame.Thread, Body: cont})

		time.Sleep(800 * time.Millisecond)
		result, _ := codec.Encode([]*message.Message{
			message.NewResult(trace, message.DefaultProtocol, "done"),
		})
		_ = serverTransport.Send(ctx, transport.Frame{To: reqFrame.From, Thread: reqFrame.Thread, Body: result})
	}()

	reply, err := client.RequestRecv(ctx, trace, 1)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "done", reply.ResultContent)
}

// TestUnknownStatusSynthesizesException drives a peer that answers a
// REQUEST with a STATUS code this build does not recognize. It exercises
// doClientStatus's default branch: the ambiguous status is turned into an
// exception-flagged RESULT and the request is marked complete, rather than
// leaving RequestRecv's caller waiting out the full timeout.
func TestUnknownStatusSynthesizesException(t *testing.T) {
	bus := memory.NewBus()
	clientTransport := bus.Connect("client@bus")
	serverTransport := bus.Connect("svc@bus")
	logger, err := logging.NewDevelopment()
	require.NoError(t, err)

	registry := NewRegistry()
	dispatcher := NewDispatcher(clientTransport, registry, "", nil, logger)
	client := NewClientSession(dispatcher, registry, "svc@bus", "opensrf.test", true, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trace, err := client.MakeRequest(ctx, "echo", []any{"hi"}, "")
	require.NoError(t, err)

	go func() {
		reqFrame, _ := serverTransport.Recv(ctx, 2)
		if reqFrame == nil {
			return
		}
		weird, _ := codec.Encode([]*message.Message{
			message.NewStatus(trace, message.DefaultProtocol, "osrfWeirdStatus", "a status nobody expected", message.StatusCode(999)),
		})
		_ = serverTransport.Send(ctx, transport.Frame{To: reqFrame.From, Thread: reqFrame.Thread, Body: weird})
	}()

	reply, err := client.RequestRecv(ctx, trace, 2)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.True(t, reply.IsException)
	assert.Equal(t, "osrfWeirdStatus", reply.StatusName)
	assert.Equal(t, message.StatusCode(999), reply.StatusCode)

	// the request was marked complete alongside the synthesized reply.
	eos, err := client.RequestRecv(ctx, trace, 1)
	require.NoError(t, err)
	assert.Nil(t, eos)
}

// newEchoRouter returns an Application whose only method, "echo", replies
// with its first argument via respond_complete.
func newEchoRouter() transport.Application {
	return applicationFunc(func(ctx context.Context, service, method string, sess transport.Responder, trace uint64, params []any) error {
		var content any
		if len(params) > 0 {
			content = params[0]
		}
		return sess.RespondComplete(ctx, trace, content)
	})
}

type applicationFunc func(ctx context.Context, service, method string, sess transport.Responder, trace uint64, params []any) error

func (f applicationFunc) Invoke(ctx context.Context, service, method string, sess transport.Responder, trace uint64, params []any) error {
	return f(ctx, service, method, sess, trace, params)
}
