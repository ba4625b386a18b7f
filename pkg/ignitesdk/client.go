package ignitesdk

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/ignite/pkg/slogx"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds every request made by a Client created without
// WithHTTPClient or WithTimeout.
const DefaultTimeout = 30 * time.Second

// Client is the single HTTP client for the Ignite Gym API. It is shared by
// every caller in the process; the Authorization header it carries is the one
// piece of session state it owns.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	logger  *slog.Logger
	limiter *rate.Limiter
	metrics *Metrics

	customHTTP bool
	timeout    time.Duration

	mu      sync.RWMutex
	headers http.Header

	interceptorMu sync.Mutex
	interceptor   *refresher
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. The client is used as-is,
// no logging transport is installed on it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = hc
		c.customHTTP = true
	}
}

// WithTimeout sets the transport-wide request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for request and refresh logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimit throttles outgoing requests. Requests wait for a token rather
// than fail.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// WithMetrics reports refresh activity to m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		headers: http.Header{},
	}
	c.headers.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(c)
	}

	if !c.customHTTP {
		c.HTTPClient = &http.Client{
			Timeout:   c.timeout,
			Transport: &slogx.Transport{Logger: c.logger},
		}
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}

	return c
}

// SetAuthorizationHeader sets the default bearer token sent with every request.
// An empty token removes the header.
func (c *Client) SetAuthorizationHeader(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token == "" {
		c.headers.Del("Authorization")
		return
	}
	c.headers.Set("Authorization", "Bearer "+token)
}

// clearAuthorization removes the default Authorization header if it still
// carries token.
func (c *Client) clearAuthorization(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bearerToken(c.headers.Get("Authorization")) == token {
		c.headers.Del("Authorization")
	}
}

// AuthorizationToken returns the bearer token currently sent by default, or ""
// if none is set.
func (c *Client) AuthorizationToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return bearerToken(c.headers.Get("Authorization"))
}

// DefaultHeaders returns a copy of the headers sent with every request.
func (c *Client) DefaultHeaders() http.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.headers.Clone()
}

// RegisterUnauthorizedInterceptor installs the token refresh interceptor.
// Every 401 response is routed through it: the stored refresh token is
// exchanged once for a new pair, concurrent 401s wait for that single exchange
// and are replayed with the new token. If the exchange fails, onRefreshFailed
// is called once and all waiting requests fail with ErrUnauthenticated.
//
// Only one interceptor is active per client; registering again replaces the
// previous one. The returned function removes the interceptor and is safe to
// call more than once.
func (c *Client) RegisterUnauthorizedInterceptor(
	tokens TokenStore,
	onRefreshFailed func(context.Context) error,
) (unregister func()) {
	r := &refresher{
		client:   c,
		tokens:   tokens,
		onFailed: onRefreshFailed,
	}

	c.interceptorMu.Lock()
	c.interceptor = r
	c.interceptorMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.disposed.Store(true)

			c.interceptorMu.Lock()
			defer c.interceptorMu.Unlock()
			if c.interceptor == r {
				c.interceptor = nil
			}
		})
	}
}

func (c *Client) currentInterceptor() *refresher {
	c.interceptorMu.Lock()
	defer c.interceptorMu.Unlock()
	return c.interceptor
}

// bearerToken strips the "Bearer " scheme from an Authorization header value.
func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
