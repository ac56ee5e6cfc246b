// Package valkeytest runs a Valkey container for tests.
package valkeytest

import (
	"context"
	"net"
	"testing"

	"github.com/docker/go-connections/nat"
	valkeycontainer "github.com/testcontainers/testcontainers-go/modules/valkey"
	"github.com/valkey-io/valkey-go"
	slogctx "github.com/veqryn/slog-context"
)

// Start runs a Valkey container and returns a client connected to it. Both
// are closed when the test finishes. The test is skipped with -short, or if
// the container cannot be started.
func Start(t testing.TB) valkey.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping valkey test in short mode")
	}

	ctx := context.Background()

	container, err := valkeycontainer.Run(ctx, "valkey/valkey:8-alpine")
	if err != nil {
		t.Skipf("could not start valkey container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			slogctx.Error(ctx, "Failed to terminate valkey container", "error", err)
		}
	})

	port, err := container.MappedPort(ctx, nat.Port("6379"))
	if err != nil {
		t.Fatalf("mapping valkey port: %v", err)
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{net.JoinHostPort("localhost", port.Port())},
	})
	if err != nil {
		t.Fatalf("connecting to valkey: %v", err)
	}
	t.Cleanup(client.Close)

	return client
}
