package credstore

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
)

// Record keys. Every backend stores the user and the credential pair under
// these two keys.
const (
	UserKey   = "ignite.user"
	TokensKey = "ignite.tokens"
)

var (
	// ErrNotFound is returned when nothing is stored under the requested key.
	ErrNotFound = errors.New("credstore: not found")

	// ErrStorage wraps every failure of the underlying backend and every
	// record that could not be decoded.
	ErrStorage = errors.New("credstore: storage failure")

	// ErrIncompletePair is returned when a stored credential pair is missing
	// one of its halves. Pairs are only ever written whole, so this means the
	// stored session is corrupt.
	ErrIncompletePair = errors.New("credstore: incomplete credential pair")
)

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks

// Store persists the signed in user and their credential pair across
// restarts. It satisfies ignitesdk.TokenStore.
type Store interface {
	// SaveUser overwrites the stored user.
	SaveUser(ctx context.Context, user ignitesdk.User) error

	// GetUser returns the stored user or ErrNotFound.
	GetUser(ctx context.Context) (ignitesdk.User, error)

	// ClearUser removes the stored user. Clearing an empty store succeeds.
	ClearUser(ctx context.Context) error

	// SaveTokens overwrites the stored pair. Both halves must be present.
	SaveTokens(ctx context.Context, pair ignitesdk.TokenPair) error

	// GetTokens returns the stored pair, ErrNotFound when there is none and
	// ErrIncompletePair when only half of it is readable.
	GetTokens(ctx context.Context) (ignitesdk.TokenPair, error)

	// ClearTokens removes the stored pair. Clearing an empty store succeeds.
	ClearTokens(ctx context.Context) error

	// SaveSession writes user and pair in one atomic step.
	SaveSession(ctx context.Context, user ignitesdk.User, pair ignitesdk.TokenPair) error

	// Clear removes user and pair in one atomic step.
	Clear(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
