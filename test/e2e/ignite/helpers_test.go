package ignite_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aussiebroadwan/ignite/internal/app"
	"github.com/aussiebroadwan/ignite/internal/testkit"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Helpers for the end-to-end session tests. A real Redis runs in a container
 * and holds the persisted session; the Ignite API is the in-process fake.
 */

const redisImage = "redis:7-alpine"

// setupRedisContainer starts Redis and returns its URL.
func setupRedisContainer(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("end-to-end test needs docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, mappedPort.Port())
}

// redisConfig returns an application config storing sessions in redisURL.
func redisConfig(api *testkit.API, redisURL, prefix string) app.Config {
	return app.Config{
		APIURL:      api.URL(),
		StoreDriver: app.DriverRedis,
		RedisURL:    redisURL,
		RedisPrefix: prefix,
		MasterKey:   "e2e master key",
		HTTPTimeout: 10 * time.Second,
		Env:         "test",
		LogLevel:    "error",
	}
}

// startApp creates an application and closes it when the test ends.
func startApp(t *testing.T, cfg app.Config) *app.Application {
	t.Helper()

	a, err := app.New(t.Context(), cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}
