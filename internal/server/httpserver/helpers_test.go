package httpserver

import (
	"context"
	"net"
	"testing"

	"github.com/yndnr/snapwatch-go/internal/telemetry/logger"
)

func handlerRequestID(ctx context.Context) string {
	return logger.RequestIDFromContext(ctx)
}

func netListen(t *testing.T) (net.Listener, error) {
	t.Helper()
	return net.Listen("tcp", "127.0.0.1:0")
}
