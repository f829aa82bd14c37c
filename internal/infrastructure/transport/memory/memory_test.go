package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensrf-go/gosrf/internal/domain/transport"
)

func TestSendRecvRoundTrip(t *testing.T) {
	bus := NewBus()
	client := bus.Connect("client@bus")
	server := bus.Connect("opensrf.math@bus")

	err := client.Send(context.Background(), transport.Frame{To: "opensrf.math@bus", Thread: "t1", Body: "hello"})
	require.NoError(t, err)

	frame, err := server.Recv(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, "client@bus", frame.From)
	assert.Equal(t, "t1", frame.Thread)
	assert.Equal(t, "hello", frame.Body)
}

func TestRecvZeroTimeoutPolls(t *testing.T) {
	bus := NewBus()
	client := bus.Connect("client@bus")

	frame, err := client.Recv(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, frame)
}

func TestSendToUnknownAddressBounces(t *testing.T) {
	bus := NewBus()
	client := bus.Connect("client@bus")

	err := client.Send(context.Background(), transport.Frame{To: "nobody@bus", Thread: "t1"})
	require.NoError(t, err)

	frame, err := client.Recv(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.True(t, frame.IsError)
	assert.Equal(t, "t1", frame.Thread)
}

func TestClosedTransportRejectsSend(t *testing.T) {
	bus := NewBus()
	client := bus.Connect("client@bus")
	require.NoError(t, client.Close())

	err := client.Send(context.Background(), transport.Frame{To: "anyone@bus"})
	assert.Error(t, err)
	assert.False(t, client.Connected())
}
