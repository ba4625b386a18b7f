// Package testkit provides an in-process fake of the Ignite Gym API for
// tests. Tokens are HS256 JWTs; refresh tokens rotate on every use. Hooks let
// a test expire access tokens, hold or fail the refresh exchange and inspect
// what the client sent.
package testkit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/ignite/pkg/cryptox"
	"github.com/aussiebroadwan/ignite/pkg/httpx"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default seeded account.
const (
	UserEmail    = "a@x.io"
	UserPassword = "secret"
)

type account struct {
	user         ignitesdk.User
	passwordHash string
}

// passwords are hashed with minimal Argon2id cost to keep tests fast
var passwords = cryptox.PasswordHasher{Memory: 64, Iterations: 1, Parallelism: 1}

type refreshFailure struct {
	status  int
	message string
}

// API is a fake Ignite Gym API server.
type API struct {
	Server *httptest.Server

	secret []byte

	mu            sync.Mutex
	accounts      map[string]*account // by email
	accessTokens  map[string]string   // token -> user ID
	refreshTokens map[string]string   // token -> user ID
	history       map[string][]ignitesdk.HistoryDay
	nextUserID    int

	issued       []ignitesdk.TokenPair
	incomplete   bool
	gate         chan struct{}
	refreshFail  *refreshFailure
	refreshCalls int
	unauthorized int
	requests     []RecordedRequest

	rateLimit *httpx.RateLimitConfig
}

// Option configures an API.
type Option func(*API)

// WithRateLimit makes the server answer 429 once requests exceed config.
// Rejected requests are still recorded.
func WithRateLimit(config httpx.RateLimitConfig) Option {
	return func(a *API) {
		a.rateLimit = &config
	}
}

// RecordedRequest is one request as the server received it.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
}

// NewAPI starts a fake API seeded with one account (UserEmail/UserPassword,
// ID "1", name "A"). The server is closed when the test ends.
func NewAPI(t testing.TB, opts ...Option) *API {
	t.Helper()

	a := &API{
		secret:        []byte("testkit-signing-secret"),
		accounts:      make(map[string]*account),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		history:       make(map[string][]ignitesdk.HistoryDay),
		nextUserID:    1,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.addAccount("A", UserEmail, UserPassword)

	a.Server = httptest.NewServer(a.routes())
	t.Cleanup(a.Server.Close)
	return a
}

// URL is the base URL of the server.
func (a *API) URL() string { return a.Server.URL }

func (a *API) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.recordAuthorization)
	if a.rateLimit != nil {
		r.Use(httpx.RateLimitMiddleware(*a.rateLimit))
	}

	r.Post("/sessions", a.handleSignIn)
	r.Post("/sessions/refresh-token", a.handleRefresh)
	r.Post("/users", a.handleSignUp)

	r.Group(func(r chi.Router) {
		r.Use(httpx.BearerAuth(a.validate))

		r.Put("/users", a.handleUpdateProfile)
		r.Patch("/users/avatar", a.handleAvatar)
		r.Get("/groups", a.handleGroups)
		r.Get("/exercises/bygroup/{group}", a.handleExercisesByGroup)
		r.Get("/exercises/{id}", a.handleExercise)
		r.Get("/history", a.handleHistory)
		r.Post("/history", a.handleRegisterHistory)
	})

	return r
}

// ============================================================================
// Hooks
// ============================================================================

// AddUser seeds another account and returns it.
func (a *API) AddUser(name, email, password string) ignitesdk.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addAccount(name, email, password)
}

// IssueTokens makes the next sign ins and refreshes hand out these pairs, in
// order, instead of generated ones.
func (a *API) IssueTokens(pairs ...ignitesdk.TokenPair) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.issued = append(a.issued, pairs...)
}

// OmitRefreshToken makes sign in answer without a refresh token.
func (a *API) OmitRefreshToken(omit bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.incomplete = omit
}

// ExpireAccessTokens invalidates every access token issued so far.
func (a *API) ExpireAccessTokens() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.accessTokens)
}

// AcceptAccessToken makes token valid for userID, as if the server had issued it.
func (a *API) AcceptAccessToken(token, userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accessTokens[token] = userID
}

// AcceptRefreshToken makes token exchangeable for userID.
func (a *API) AcceptRefreshToken(token, userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshTokens[token] = userID
}

// FailRefresh makes every refresh exchange answer status with message. A zero
// status restores normal behaviour.
func (a *API) FailRefresh(status int, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if status == 0 {
		a.refreshFail = nil
		return
	}
	a.refreshFail = &refreshFailure{status: status, message: message}
}

// HoldRefresh blocks refresh exchanges until the returned release is called.
func (a *API) HoldRefresh() (release func()) {
	gate := make(chan struct{})

	a.mu.Lock()
	a.gate = gate
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			a.gate = nil
			a.mu.Unlock()
			close(gate)
		})
	}
}

// RefreshCalls is the number of refresh exchanges received.
func (a *API) RefreshCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshCalls
}

// Unauthorized is the number of requests rejected for a bad access token.
func (a *API) Unauthorized() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unauthorized
}

// Authorizations returns the Authorization headers received for path, in order.
func (a *API) Authorizations(path string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []string
	for _, req := range a.requests {
		if req.Path == path {
			out = append(out, req.Authorization)
		}
	}
	return out
}

// Requests returns every request received, in arrival order.
func (a *API) Requests() []RecordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]RecordedRequest(nil), a.requests...)
}

// ============================================================================
// Tokens
// ============================================================================

// addAccount must be called with a.mu held or before the server starts.
func (a *API) addAccount(name, email, password string) ignitesdk.User {
	user := ignitesdk.User{
		ID:    strconv.Itoa(a.nextUserID),
		Name:  name,
		Email: email,
	}
	hash, err := passwords.Hash(password)
	if err != nil {
		panic(fmt.Sprintf("testkit: hash password: %v", err))
	}

	a.nextUserID++
	a.accounts[email] = &account{user: user, passwordHash: hash}
	return user
}

// issue must be called with a.mu held.
func (a *API) issue(userID string) (ignitesdk.TokenPair, error) {
	var pair ignitesdk.TokenPair

	if len(a.issued) > 0 {
		pair, a.issued = a.issued[0], a.issued[1:]
	} else {
		now := time.Now()
		access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		}).SignedString(a.secret)
		if err != nil {
			return ignitesdk.TokenPair{}, err
		}
		refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return ignitesdk.TokenPair{}, err
		}
		pair = ignitesdk.TokenPair{Token: access, RefreshToken: refresh}
	}

	a.accessTokens[pair.Token] = userID
	if pair.RefreshToken != "" {
		a.refreshTokens[pair.RefreshToken] = userID
	}
	return pair, nil
}

func (a *API) validate(token string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	userID, ok := a.accessTokens[token]
	if !ok {
		a.unauthorized++
	}
	return userID, ok
}

func (a *API) recordAuthorization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests = append(a.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		a.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (a *API) userByID(id string) *account {
	for _, acc := range a.accounts {
		if acc.user.ID == id {
			return acc
		}
	}
	return nil
}
