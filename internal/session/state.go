package session

import (
	"sync"

	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
)

// Snapshot is a consistent view of the session at one point in time.
type Snapshot struct {
	// User is the signed in user, the zero User when signed out
	User ignitesdk.User

	// LoadingUserData is true while any session operation is in progress
	LoadingUserData bool
}

// SignedIn reports whether the snapshot holds a user.
func (s Snapshot) SignedIn() bool { return !s.User.IsZero() }

// State is the in-memory session observed by the rest of the process. It
// starts out loading until the first Bootstrap settles.
type State struct {
	mu   sync.RWMutex
	user ignitesdk.User

	// loading is true from creation until the first operation settles, and
	// while inflight > 0 afterwards
	loading  bool
	inflight int

	nextID      int
	subscribers map[int]chan Snapshot
}

// NewState returns a signed out State that is loading.
func NewState() *State {
	return &State{
		loading:     true,
		subscribers: make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current user and loading flag together.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{User: s.user, LoadingUserData: s.loading}
}

// User returns the signed in user, the zero User when signed out.
func (s *State) User() ignitesdk.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user
}

// Loading reports whether a session operation is in progress.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loading
}

// Subscribe returns a channel receiving a Snapshot after every change. A slow
// reader only ever sees the latest snapshot, intermediate ones are dropped.
// cancel stops delivery and closes the channel.
func (s *State) Subscribe() (updates <-chan Snapshot, cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan Snapshot, 1)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			delete(s.subscribers, id)
			close(ch)
		})
	}
}

func (s *State) setUser(user ignitesdk.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	s.publish()
}

// begin marks an operation in progress.
func (s *State) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight++
	if !s.loading {
		s.loading = true
		s.publish()
	}
}

// end marks an operation settled. Loading clears once no operation is left.
func (s *State) end() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight > 0 {
		s.inflight--
	}
	if s.inflight == 0 && s.loading {
		s.loading = false
		s.publish()
	}
}

// publish must be called with s.mu held.
func (s *State) publish() {
	snap := Snapshot{User: s.user, LoadingUserData: s.loading}

	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Replace the unread snapshot with the newer one
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
