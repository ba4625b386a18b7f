// Package storetest holds the behaviour every credstore.Backend must share.
// Drivers call Run from their own tests.
package storetest

import (
	"sync"
	"testing"

	"github.com/aussiebroadwan/ignite/internal/credstore"
	"github.com/aussiebroadwan/ignite/pkg/cryptox"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testUser = ignitesdk.User{ID: "1", Name: "A", Email: "a@x.io", Avatar: "a.png"}
	testPair = ignitesdk.TokenPair{Token: "t1", RefreshToken: "r1"}
)

// Run exercises newBackend through a credstore.Store, with and without
// encryption at rest. newBackend must return a fresh, empty backend.
func Run(t *testing.T, newBackend func(t *testing.T) credstore.Backend) {
	t.Helper()

	sealer, err := cryptox.NewSealer([]byte("storetest-master-key"))
	require.NoError(t, err)

	variants := map[string][]credstore.Option{
		"plain":  nil,
		"sealed": {credstore.WithSealer(sealer)},
	}

	for name, opts := range variants {
		t.Run(name, func(t *testing.T) {
			open := func(t *testing.T) credstore.Store {
				s := credstore.New(newBackend(t), opts...)
				t.Cleanup(func() { _ = s.Close() })
				return s
			}

			t.Run("empty store", func(t *testing.T) { testEmpty(t, open(t)) })
			t.Run("user round trip", func(t *testing.T) { testUserRoundTrip(t, open(t)) })
			t.Run("tokens round trip", func(t *testing.T) { testTokensRoundTrip(t, open(t)) })
			t.Run("session save and clear", func(t *testing.T) { testSession(t, open(t)) })
			t.Run("rejects incomplete pair", func(t *testing.T) { testIncompletePair(t, open(t)) })
			t.Run("concurrent writers", func(t *testing.T) { testConcurrent(t, open(t)) })
		})
	}

	t.Run("corrupt record", func(t *testing.T) {
		backend := newBackend(t)
		t.Cleanup(func() { _ = backend.Close() })

		require.NoError(t, backend.Put(t.Context(), map[string][]byte{
			credstore.UserKey:   []byte("{not json"),
			credstore.TokensKey: []byte(`{"token":"t1"}`),
		}))

		s := credstore.New(backend)
		_, err := s.GetUser(t.Context())
		require.ErrorIs(t, err, credstore.ErrStorage)

		_, err = s.GetTokens(t.Context())
		require.ErrorIs(t, err, credstore.ErrIncompletePair)
	})
}

func testEmpty(t *testing.T, s credstore.Store) {
	_, err := s.GetUser(t.Context())
	require.ErrorIs(t, err, credstore.ErrNotFound)

	_, err = s.GetTokens(t.Context())
	require.ErrorIs(t, err, credstore.ErrNotFound)

	// Clearing nothing is fine
	require.NoError(t, s.ClearUser(t.Context()))
	require.NoError(t, s.ClearTokens(t.Context()))
	require.NoError(t, s.Clear(t.Context()))
}

func testUserRoundTrip(t *testing.T, s credstore.Store) {
	require.NoError(t, s.SaveUser(t.Context(), testUser))

	got, err := s.GetUser(t.Context())
	require.NoError(t, err)
	require.Equal(t, testUser, got)

	// Overwrite keeps only the latest
	renamed := testUser
	renamed.Name = "B"
	require.NoError(t, s.SaveUser(t.Context(), renamed))

	got, err = s.GetUser(t.Context())
	require.NoError(t, err)
	require.Equal(t, "B", got.Name)

	require.NoError(t, s.ClearUser(t.Context()))
	_, err = s.GetUser(t.Context())
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func testTokensRoundTrip(t *testing.T, s credstore.Store) {
	require.NoError(t, s.SaveTokens(t.Context(), testPair))

	got, err := s.GetTokens(t.Context())
	require.NoError(t, err)
	require.Equal(t, testPair, got)

	rotated := ignitesdk.TokenPair{Token: "t2", RefreshToken: "r2"}
	require.NoError(t, s.SaveTokens(t.Context(), rotated))

	got, err = s.GetTokens(t.Context())
	require.NoError(t, err)
	require.Equal(t, rotated, got)

	require.NoError(t, s.ClearTokens(t.Context()))
	_, err = s.GetTokens(t.Context())
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func testSession(t *testing.T, s credstore.Store) {
	require.NoError(t, s.SaveSession(t.Context(), testUser, testPair))

	user, err := s.GetUser(t.Context())
	require.NoError(t, err)
	require.Equal(t, testUser, user)

	pair, err := s.GetTokens(t.Context())
	require.NoError(t, err)
	require.Equal(t, testPair, pair)

	require.NoError(t, s.Clear(t.Context()))

	_, err = s.GetUser(t.Context())
	require.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = s.GetTokens(t.Context())
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func testIncompletePair(t *testing.T, s credstore.Store) {
	err := s.SaveTokens(t.Context(), ignitesdk.TokenPair{Token: "t1"})
	require.ErrorIs(t, err, credstore.ErrIncompletePair)

	err = s.SaveSession(t.Context(), testUser, ignitesdk.TokenPair{RefreshToken: "r1"})
	require.ErrorIs(t, err, credstore.ErrIncompletePair)

	// Nothing was written
	_, err = s.GetUser(t.Context())
	require.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = s.GetTokens(t.Context())
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func testConcurrent(t *testing.T, s credstore.Store) {
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.SaveSession(t.Context(), testUser, testPair))
		}()
	}
	wg.Wait()

	pair, err := s.GetTokens(t.Context())
	require.NoError(t, err)
	require.Equal(t, testPair, pair)
}
