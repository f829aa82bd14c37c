// Command echo-server is a self-contained demonstration of the protocol
// engine: it wires a Server and a Client together over an in-memory bus
// (the stand-in for a real message broker) and drives one full stateful
// conversation — connect, request, respond_complete, disconnect — logging
// every step.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/opensrf-go/gosrf/internal/domain/transport"
	"github.com/opensrf-go/gosrf/internal/infrastructure/logging"
	"github.com/opensrf-go/gosrf/internal/infrastructure/transport/memory"
	"github.com/opensrf-go/gosrf/pkg/session"
)

// echoMethod is the server's only application method: it replies with its
// first argument, unchanged.
func echoMethod(ctx context.Context, sess transport.Responder, threadTrace uint64, params []any) error {
	var content any
	if len(params) > 0 {
		content = params[0]
	}
	return sess.RespondComplete(ctx, threadTrace, content)
}

func main() {
	message := flag.String("message", "hello from echo-server", "message to echo through the round trip")
	flag.Parse()

	logger, err := logging.NewDevelopment()
	if err != nil {
		panic(err)
	}

	bus := memory.NewBus()
	serverTransport := bus.Connect("opensrf.echo@bus")
	clientTransport := bus.Connect("demo-client@bus")

	srv := session.NewServer(serverTransport, "opensrf.echo", logger)
	srv.Register("echo", echoMethod)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx, 1) }()

	client := session.NewClient(clientTransport, "opensrf.echo@bus", "opensrf.echo", false, logger)
	defer client.Close()

	if err := client.Connect(ctx, 5); err != nil {
		if connErr := client.Err(); connErr != nil {
			logger.Fatal("peer unreachable", logging.Fields{"error": connErr.Error()})
		}
		logger.Fatal("connect failed", logging.Fields{"error": err.Error()})
	}
	logger.Info("connected", logging.Fields{"session_id": client.SessionID()})

	trace, err := client.MakeRequest(ctx, "echo", []any{*message}, "")
	if err != nil {
		logger.Fatal("request failed", logging.Fields{"error": err.Error()})
	}

	reply, err := client.RequestRecv(ctx, trace, 5)
	if err != nil {
		logger.Fatal("recv failed", logging.Fields{"error": err.Error()})
	}
	if excErr := client.AsError(reply); excErr != nil {
		logger.Fatal("remote exception", logging.Fields{"error": excErr.Error()})
	}
	logger.Info("received reply", logging.Fields{"content": reply.ResultContent})

	// a second recv observes the COMPLETE status and returns nil, nil.
	if _, err := client.RequestRecv(ctx, trace, 2); err != nil {
		logger.Fatal("recv (complete) failed", logging.Fields{"error": err.Error()})
	}
	client.RequestFinish(trace)

	if err := client.Disconnect(ctx); err != nil {
		logger.Warn("disconnect failed", logging.Fields{"error": err.Error()})
	}

	cancel()
	select {
	case <-serveErr:
	case <-time.After(2 * time.Second):
	}
	srv.Shutdown()
}
