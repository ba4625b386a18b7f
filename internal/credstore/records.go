package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/ignite/pkg/cryptox"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
)

// Option configures a Store.
type Option func(*recordStore)

// WithSealer encrypts every record before it reaches the backend. The record
// key is bound as associated data so records cannot be swapped.
func WithSealer(s *cryptox.Sealer) Option {
	return func(r *recordStore) { r.sealer = s }
}

// recordStore implements Store as JSON records on top of a Backend.
type recordStore struct {
	backend Backend
	sealer  *cryptox.Sealer
}

// New returns a Store persisting to backend.
func New(backend Backend, opts ...Option) Store {
	s := &recordStore{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *recordStore) SaveUser(ctx context.Context, user ignitesdk.User) error {
	data, err := s.encode(UserKey, user)
	if err != nil {
		return err
	}
	return wrap("save user", s.backend.Put(ctx, map[string][]byte{UserKey: data}))
}

func (s *recordStore) GetUser(ctx context.Context) (ignitesdk.User, error) {
	var user ignitesdk.User
	if err := s.load(ctx, UserKey, &user); err != nil {
		return ignitesdk.User{}, err
	}
	return user, nil
}

func (s *recordStore) ClearUser(ctx context.Context) error {
	return wrap("clear user", s.backend.Delete(ctx, UserKey))
}

func (s *recordStore) SaveTokens(ctx context.Context, pair ignitesdk.TokenPair) error {
	if !pair.Complete() {
		return ErrIncompletePair
	}

	data, err := s.encode(TokensKey, pair)
	if err != nil {
		return err
	}
	return wrap("save tokens", s.backend.Put(ctx, map[string][]byte{TokensKey: data}))
}

func (s *recordStore) GetTokens(ctx context.Context) (ignitesdk.TokenPair, error) {
	var pair ignitesdk.TokenPair
	if err := s.load(ctx, TokensKey, &pair); err != nil {
		return ignitesdk.TokenPair{}, err
	}
	if !pair.Complete() {
		return ignitesdk.TokenPair{}, ErrIncompletePair
	}
	return pair, nil
}

func (s *recordStore) ClearTokens(ctx context.Context) error {
	return wrap("clear tokens", s.backend.Delete(ctx, TokensKey))
}

func (s *recordStore) SaveSession(ctx context.Context, user ignitesdk.User, pair ignitesdk.TokenPair) error {
	if !pair.Complete() {
		return ErrIncompletePair
	}

	userData, err := s.encode(UserKey, user)
	if err != nil {
		return err
	}
	pairData, err := s.encode(TokensKey, pair)
	if err != nil {
		return err
	}

	return wrap("save session", s.backend.Put(ctx, map[string][]byte{
		UserKey:   userData,
		TokensKey: pairData,
	}))
}

func (s *recordStore) Clear(ctx context.Context) error {
	return wrap("clear session", s.backend.Delete(ctx, UserKey, TokensKey))
}

func (s *recordStore) Close() error {
	return wrap("close", s.backend.Close())
}

// encode marshals v and seals it when a sealer is configured.
func (s *recordStore) encode(key string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %w", ErrStorage, key, err)
	}

	if s.sealer == nil {
		return data, nil
	}

	sealed, err := s.sealer.Seal(data, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: seal %s: %w", ErrStorage, key, err)
	}
	return sealed, nil
}

// load reads key and unmarshals it into target.
func (s *recordStore) load(ctx context.Context, key string, target any) error {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return wrap("read "+key, err)
	}

	if s.sealer != nil {
		data, err = s.sealer.Open(data, []byte(key))
		if err != nil {
			return fmt.Errorf("%w: open %s: %w", ErrStorage, key, err)
		}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrStorage, key, err)
	}
	return nil
}

// wrap tags backend failures with ErrStorage and the operation.
func wrap(op string, err error) error {
	if err == nil || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
