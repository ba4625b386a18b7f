package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/ignite/internal/credstore"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces the keys written by the backend.
const DefaultPrefix = "ignite"

// Backend is a credstore.Backend on Redis. Multi-key writes run in a
// MULTI/EXEC transaction.
type Backend struct {
	client redis.UniversalClient
	prefix string
}

var _ credstore.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithPrefix sets the key prefix, keys are stored as "<prefix>:<key>".
func WithPrefix(prefix string) Option {
	return func(b *Backend) { b.prefix = prefix }
}

// New wraps an existing client. Closing the backend closes the client.
func New(client redis.UniversalClient, opts ...Option) *Backend {
	b := &Backend{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open connects to the server at url (redis://[:password@]host:port/db) and
// checks it is reachable.
func Open(ctx context.Context, url string, opts ...Option) (*Backend, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return New(client, opts...), nil
}

func (b *Backend) key(k string) string {
	if b.prefix == "" {
		return k
	}
	return b.prefix + ":" + k
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := b.client.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, credstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (b *Backend) Put(ctx context.Context, records map[string][]byte) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range records {
			pipe.Set(ctx, b.key(key), value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set records: %w", err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = b.key(key)
	}

	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, prefixed...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	return nil
}

func (b *Backend) Close() error { return b.client.Close() }
