package session

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
	"github.com/stretchr/testify/require"
)

func TestNewStateIsLoadingAndSignedOut(t *testing.T) {
	t.Parallel()

	s := NewState()
	snap := s.Snapshot()

	require.True(t, snap.LoadingUserData)
	require.False(t, snap.SignedIn())
	require.True(t, s.User().IsZero())
}

func TestLoadingTracksOverlappingOperations(t *testing.T) {
	t.Parallel()

	s := NewState()

	s.begin()
	s.begin()
	s.end()
	require.True(t, s.Loading(), "one operation still in flight")

	s.end()
	require.False(t, s.Loading())

	// Unbalanced end never goes negative
	s.end()
	s.begin()
	require.True(t, s.Loading())
	s.end()
	require.False(t, s.Loading())
}

func TestSubscribeDeliversLatest(t *testing.T) {
	t.Parallel()

	s := NewState()
	updates, cancel := s.Subscribe()
	defer cancel()

	s.setUser(ignitesdk.User{ID: "1", Name: "A"})
	s.setUser(ignitesdk.User{ID: "1", Name: "B"})

	// The first snapshot was replaced by the second
	select {
	case snap := <-updates:
		require.Equal(t, "B", snap.User.Name)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	select {
	case snap := <-updates:
		t.Fatalf("unexpected extra snapshot %+v", snap)
	default:
	}
}

func TestSubscribeCancel(t *testing.T) {
	t.Parallel()

	s := NewState()
	updates, cancel := s.Subscribe()

	cancel()
	cancel() // idempotent

	_, open := <-updates
	require.False(t, open)

	// Publishing after cancel is fine
	s.setUser(ignitesdk.User{ID: "1"})
}
