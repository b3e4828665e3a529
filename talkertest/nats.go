package talkertest

import (
	"testing"

	"github.com/nats-io/nats-server/v2/server"

	natsserver "github.com/nats-io/nats-server/v2/test"
)

// RunNatsServer starts an in-process NATS server on a random port and returns its client URL.
// The server is shut down at test cleanup.
func RunNatsServer(t testing.TB) string {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = server.RANDOM_PORT

	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)

	return srv.ClientURL()
}
