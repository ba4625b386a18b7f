package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/ignite/internal/credstore"
	"github.com/aussiebroadwan/ignite/internal/credstore/drivers/sqlite"
	"github.com/aussiebroadwan/ignite/internal/credstore/storetest"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
	"github.com/stretchr/testify/require"
)

func openBackend(t *testing.T, path string) *sqlite.Backend {
	t.Helper()

	b, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, b.ApplyMigrations())
	return b
}

func TestBackend(t *testing.T) {
	storetest.Run(t, func(t *testing.T) credstore.Backend {
		return openBackend(t, filepath.Join(t.TempDir(), "ignite.db"))
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	b := openBackend(t, filepath.Join(t.TempDir(), "ignite.db"))
	defer b.Close()

	require.NoError(t, b.ApplyMigrations())
	require.NoError(t, b.Ping(t.Context()))
}

func TestSessionSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ignite.db")

	user := ignitesdk.User{ID: "1", Name: "A", Email: "a@x.io"}
	pair := ignitesdk.TokenPair{Token: "t1", RefreshToken: "r1"}

	first := credstore.New(openBackend(t, path))
	require.NoError(t, first.SaveSession(t.Context(), user, pair))
	require.NoError(t, first.Close())

	second := credstore.New(openBackend(t, path))
	defer second.Close()

	gotUser, err := second.GetUser(t.Context())
	require.NoError(t, err)
	require.Equal(t, user, gotUser)

	gotPair, err := second.GetTokens(t.Context())
	require.NoError(t, err)
	require.Equal(t, pair, gotPair)
}
