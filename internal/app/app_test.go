package app_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/ignite/internal/app"
	"github.com/aussiebroadwan/ignite/internal/credstore"
	"github.com/aussiebroadwan/ignite/internal/testkit"
	"github.com/stretchr/testify/require"
)

func testConfig(api *testkit.API, driver string) app.Config {
	return app.Config{
		APIURL:      api.URL(),
		StoreDriver: driver,
		HTTPTimeout: 5 * time.Second,
		Env:         "test",
		LogLevel:    "error",
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	t.Parallel()

	api := testkit.NewAPI(t)
	dir := t.TempDir()

	cfg := testConfig(api, app.DriverSQLite)
	cfg.DatabaseFile = filepath.Join(dir, "ignite.db")
	cfg.MasterKey = "correct horse battery staple"

	first, err := app.New(t.Context(), cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.False(t, first.Session().State().Snapshot().SignedIn())

	require.NoError(t, first.Session().SignIn(t.Context(), testkit.UserEmail, testkit.UserPassword))
	require.NoError(t, first.Close())

	second, err := app.New(t.Context(), cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	defer second.Close()

	snap := second.Session().State().Snapshot()
	require.True(t, snap.SignedIn())
	require.False(t, snap.LoadingUserData)
	require.Equal(t, "1", snap.User.ID)
	require.NotEmpty(t, second.Client().AuthorizationToken())

	groups, err := second.Client().Groups(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, groups)
}

func TestWrongMasterKeyFailsStartup(t *testing.T) {
	t.Parallel()

	api := testkit.NewAPI(t)

	cfg := testConfig(api, app.DriverFile)
	cfg.SessionFile = filepath.Join(t.TempDir(), "session.json")
	cfg.MasterKey = "first key"

	first, err := app.New(t.Context(), cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.NoError(t, first.Session().SignIn(t.Context(), testkit.UserEmail, testkit.UserPassword))
	require.NoError(t, first.Close())

	cfg.MasterKey = "second key"
	_, err = app.New(t.Context(), cfg, app.WithLogOutput(io.Discard))
	require.ErrorIs(t, err, credstore.ErrStorage)
}

func TestMasterKeyFile(t *testing.T) {
	t.Parallel()

	api := testkit.NewAPI(t)
	dir := t.TempDir()

	keyPath := filepath.Join(dir, "master.key")
	require.NoError(t, os.WriteFile(keyPath, []byte("from a file\n"), 0o600))

	cfg := testConfig(api, app.DriverFile)
	cfg.SessionFile = filepath.Join(dir, "session.json")
	cfg.MasterKeyPath = keyPath

	a, err := app.New(t.Context(), cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Session().SignIn(t.Context(), testkit.UserEmail, testkit.UserPassword))

	raw, err := os.ReadFile(cfg.SessionFile)
	require.NoError(t, err)
	require.NotContains(t, string(raw), testkit.UserEmail, "records are sealed at rest")
}

func TestMissingMasterKeyFile(t *testing.T) {
	t.Parallel()

	api := testkit.NewAPI(t)

	cfg := testConfig(api, app.DriverMemory)
	cfg.MasterKeyPath = filepath.Join(t.TempDir(), "missing.key")

	_, err := app.New(t.Context(), cfg, app.WithLogOutput(io.Discard))
	require.ErrorContains(t, err, "master key")
}

func TestIncompletePersistedSessionIsDiscarded(t *testing.T) {
	t.Parallel()

	api := testkit.NewAPI(t)

	backend := credstore.NewMemoryBackend()
	require.NoError(t, backend.Put(t.Context(), map[string][]byte{
		credstore.UserKey:   []byte(`{"id":"1","name":"A","email":"a@x.io","avatar":""}`),
		credstore.TokensKey: []byte(`{"refresh_token":"r1"}`),
	}))

	a, err := app.New(t.Context(), testConfig(api, app.DriverMemory),
		app.WithLogOutput(io.Discard),
		app.WithBackend(backend),
	)
	require.NoError(t, err)
	defer a.Close()

	require.False(t, a.Session().State().Snapshot().SignedIn())

	_, err = backend.Get(t.Context(), credstore.TokensKey)
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestWriteMetrics(t *testing.T) {
	t.Parallel()

	api := testkit.NewAPI(t)

	a, err := app.New(t.Context(), testConfig(api, app.DriverMemory), app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Session().SignIn(t.Context(), testkit.UserEmail, testkit.UserPassword))
	api.ExpireAccessTokens()

	_, err = a.Client().History(t.Context())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.WriteMetrics(&buf))
	require.Contains(t, buf.String(), `ignite_client_refresh_total{outcome="success"} 1`)
	require.Contains(t, buf.String(), "ignite_client_requests_replayed_total 1")
}
