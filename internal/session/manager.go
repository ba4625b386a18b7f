package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/ignite/internal/credstore"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
	"github.com/aussiebroadwan/ignite/pkg/slogx"
)

// Manager owns the session lifecycle: sign in, sign up, sign out, profile
// updates and restoring a persisted session at startup. It keeps the
// in-memory State, the persisted credstore.Store and the client's
// Authorization header in agreement.
type Manager struct {
	api    *ignitesdk.Client
	store  credstore.Store
	state  *State
	logger *slog.Logger

	unregister func()
	closeOnce  sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithState makes the manager publish into an existing State.
func WithState(state *State) Option {
	return func(m *Manager) { m.state = state }
}

// NewManager creates a manager and registers its sign-out as the client's
// refresh failure handler. Close releases that registration.
func NewManager(api *ignitesdk.Client, store credstore.Store, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.state == nil {
		m.state = NewState()
	}

	m.unregister = api.RegisterUnauthorizedInterceptor(store, m.SignOut)
	return m
}

// State returns the observable session state.
func (m *Manager) State() *State { return m.state }

// User returns the signed in user, the zero User when signed out.
func (m *Manager) User() ignitesdk.User { return m.state.User() }

// SignIn authenticates with email and password. The user and credential pair
// are persisted before the session becomes visible. A response lacking the
// user or either token is ignored and nothing changes.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	m.state.begin()
	defer m.state.end()

	return m.signIn(ctx, email, password)
}

func (m *Manager) signIn(ctx context.Context, email, password string) error {
	resp, err := m.api.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	pair := resp.Pair()
	if resp.User == nil || !pair.Complete() {
		m.logger.Warn("sign in response incomplete, session not created",
			"email", slogx.RedactEmail(email),
			"has_user", resp.User != nil,
			"has_token", resp.Token != "",
			"has_refresh_token", resp.RefreshToken != "",
		)
		return nil
	}

	if err := m.store.SaveSession(ctx, *resp.User, pair); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	m.api.SetAuthorizationHeader(pair.Token)
	m.state.setUser(*resp.User)

	m.logger.Info("signed in",
		"user_id", resp.User.ID,
		"subject", ignitesdk.TokenSubject(pair.Token),
		"email", slogx.RedactEmail(email),
	)
	return nil
}

// SignUp creates an account and signs into it.
func (m *Manager) SignUp(ctx context.Context, in ignitesdk.SignUpRequest) error {
	m.state.begin()
	defer m.state.end()

	if err := m.api.SignUp(ctx, in); err != nil {
		return err
	}

	return m.signIn(ctx, in.Email, in.Password)
}

// SignOut ends the session. The in-memory session and the Authorization
// header are cleared first and unconditionally, a storage failure is returned
// after the fact. Signing out while signed out is a no-op.
func (m *Manager) SignOut(ctx context.Context) error {
	m.state.begin()
	defer m.state.end()

	userID := m.state.User().ID
	m.state.setUser(ignitesdk.User{})
	m.api.SetAuthorizationHeader("")

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("clear persisted session", "user_id", userID, "error", err)
		return fmt.Errorf("sign out: %w", err)
	}

	if userID != "" {
		m.logger.Info("signed out", "user_id", userID)
	}
	return nil
}

// UpdateUserProfile replaces the in-memory user and persists it. The
// in-memory user is replaced even if persisting fails.
func (m *Manager) UpdateUserProfile(ctx context.Context, user ignitesdk.User) error {
	m.state.begin()
	defer m.state.end()

	m.state.setUser(user)

	if err := m.store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

// Bootstrap restores a persisted session. Nothing persisted leaves the
// session signed out. A corrupt credential pair is cleared from storage and
// reported, the session stays signed out.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.state.begin()
	defer m.state.end()

	user, err := m.store.GetUser(ctx)
	if errors.Is(err, credstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	pair, err := m.store.GetTokens(ctx)
	switch {
	case errors.Is(err, credstore.ErrNotFound):
		m.logger.Warn("persisted user without credentials, staying signed out", "user_id", user.ID)
		return nil
	case errors.Is(err, credstore.ErrIncompletePair):
		m.logger.Warn("persisted credentials incomplete, clearing", "user_id", user.ID)
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			return errors.Join(err, clearErr)
		}
		return err
	case err != nil:
		return fmt.Errorf("load tokens: %w", err)
	}

	m.api.SetAuthorizationHeader(pair.Token)
	m.state.setUser(user)

	m.logger.Debug("session restored", "user_id", user.ID)
	return nil
}

// Close unregisters the refresh interceptor. It is safe to call more than
// once; the manager must not be used afterwards.
func (m *Manager) Close() {
	m.closeOnce.Do(m.unregister)
}
