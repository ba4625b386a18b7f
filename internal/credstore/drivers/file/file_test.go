package file_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aussiebroadwan/ignite/internal/credstore"
	"github.com/aussiebroadwan/ignite/internal/credstore/drivers/file"
	"github.com/aussiebroadwan/ignite/internal/credstore/storetest"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
	"github.com/stretchr/testify/require"
)

func TestBackend(t *testing.T) {
	storetest.Run(t, func(t *testing.T) credstore.Backend {
		return file.New(filepath.Join(t.TempDir(), "session.json"))
	})
}

func TestFileIsPrivate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}

	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := credstore.New(file.New(path))

	require.NoError(t, s.SaveTokens(t.Context(), ignitesdk.TokenPair{Token: "t1", RefreshToken: "r1"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	s := credstore.New(file.New(path))

	_, err := s.GetUser(t.Context())
	require.ErrorIs(t, err, credstore.ErrStorage)
}
