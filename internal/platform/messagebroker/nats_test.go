package messagebroker

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNatsClient_UnreachableServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := NewNatsClient("nats://127.0.0.1:1", "tollfree-migrator-test", logger)
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

func TestNatsClient_CloseWithoutConnection(t *testing.T) {
	client := &NatsClient{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	assert.NotPanics(t, client.Close)
}
