package credstore

import "context"

// Backend is a small key/value store the credential records live in.
// Drivers live under drivers/.
type Backend interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes all records atomically: either every key is updated or none.
	Put(ctx context.Context, records map[string][]byte) error

	// Delete removes keys atomically. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Close releases the backend's resources.
	Close() error
}
