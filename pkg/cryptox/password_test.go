package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// cheap keeps the tests fast, the format is identical
var cheap = PasswordHasher{Memory: 64, Iterations: 1, Parallelism: 1}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "senha🔒密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash, err := cheap.Hash(tt.password)
			require.NoError(t, err)

			// Verify PHC format
			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.Equal(t, "m=64,t=1,p=1", parts[3])

			require.NoError(t, VerifyPassword(tt.password, hash))
			require.ErrorIs(t, VerifyPassword(tt.password+"x", hash), ErrPasswordMismatch)
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	t.Parallel()

	hash1, err := cheap.Hash("samepassword")
	require.NoError(t, err)
	hash2, err := cheap.Hash("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
}

func TestVerifyPasswordUsesRecordedParameters(t *testing.T) {
	t.Parallel()

	hash, err := DefaultPasswordHasher.Hash("secret")
	require.NoError(t, err)
	require.Contains(t, hash, "m=19456,t=2,p=1")

	require.NoError(t, VerifyPassword("secret", hash))
}

func TestVerifyPassword_InvalidFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		hash    string
		wantErr string
	}{
		{"empty", "", "expected 6 parts"},
		{"bcrypt", "$2a$10$abcdefghijklmnopqrstuv", "expected 6 parts"},
		{"wrong algorithm", "$argon2i$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA", "not argon2id"},
		{"wrong version", "$argon2id$v=16$m=64,t=1,p=1$c2FsdA$aGFzaA", "wrong version"},
		{"bad parameters", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA", "parse parameters"},
		{"bad salt", "$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaA", "decode salt"},
		{"bad hash", "$argon2id$v=19$m=64,t=1,p=1$c2FsdA$!!!", "decode hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := VerifyPassword("password", tt.hash)
			require.ErrorContains(t, err, tt.wantErr)
			require.NotErrorIs(t, err, ErrPasswordMismatch)
		})
	}
}
