package cryptox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/ignite/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	t.Parallel()

	sealer, err := cryptox.NewSealer([]byte("test-master-key-for-encryption-12345"))
	require.NoError(t, err)

	plaintext := []byte(`{"token":"t1","refresh_token":"r1"}`)
	ad := []byte("ignite.tokens")

	sealed, err := sealer.Seal(plaintext, ad)
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "refresh_token", "sealed data should not leak plaintext")

	opened, err := sealer.Open(sealed, ad)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestSealProducesDistinctCiphertexts(t *testing.T) {
	t.Parallel()

	sealer, err := cryptox.NewSealer([]byte("test-master-key-multiple-times-xyz"))
	require.NoError(t, err)

	data := []byte("refresh-token-data")

	a, err := sealer.Seal(data, nil)
	require.NoError(t, err)
	b, err := sealer.Seal(data, nil)
	require.NoError(t, err)

	// Random nonce per seal
	require.NotEqual(t, a, b)
}

func TestOpenFailures(t *testing.T) {
	t.Parallel()

	sealer, err := cryptox.NewSealer([]byte("key-one"))
	require.NoError(t, err)
	other, err := cryptox.NewSealer([]byte("key-two"))
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("secret"), []byte("ignite.user"))
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := other.Open(sealed, []byte("ignite.user"))
		require.Error(t, err)
	})

	t.Run("wrong associated data", func(t *testing.T) {
		_, err := sealer.Open(sealed, []byte("ignite.tokens"))
		require.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		tampered := append([]byte(nil), sealed...)
		tampered[len(tampered)-1] ^= 0xff
		_, err := sealer.Open(tampered, []byte("ignite.user"))
		require.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := sealer.Open([]byte("short"), nil)
		require.Error(t, err)
	})
}

func TestNewSealerRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := cryptox.NewSealer(nil)
	require.ErrorIs(t, err, cryptox.ErrNoKeyMaterial)
}

func TestLoadKeyMaterial(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "master.key")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	key, err := cryptox.LoadKeyMaterial(path, "from-env")
	require.NoError(t, err)
	require.Equal(t, []byte("from-file"), key, "file takes precedence and is trimmed")

	key, err = cryptox.LoadKeyMaterial("", "from-env")
	require.NoError(t, err)
	require.Equal(t, []byte("from-env"), key)

	_, err = cryptox.LoadKeyMaterial("", "")
	require.ErrorIs(t, err, cryptox.ErrNoKeyMaterial)

	_, err = cryptox.LoadKeyMaterial(filepath.Join(t.TempDir(), "missing"), "")
	require.Error(t, err)
}
