package ignitesdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aussiebroadwan/ignite/pkg/cryptox"
)

// TokenStore is where the interceptor reads the refresh token from and writes
// the rotated pair back to.
type TokenStore interface {
	GetTokens(ctx context.Context) (TokenPair, error)
	SaveTokens(ctx context.Context, pair TokenPair) error
}

// refresher coalesces concurrent 401s into a single refresh exchange.
//
// While idle, the first 401 becomes the leader and performs the exchange.
// Every 401 that arrives while the exchange is in flight is queued and settled
// when the leader finishes: replayed in arrival order on success, rejected with
// ErrUnauthenticated on failure.
type refresher struct {
	client   *Client
	tokens   TokenStore
	onFailed func(context.Context) error

	// disposed is set once the owner unregistered the interceptor, an exchange
	// still in flight then no longer reports failures to the owner
	disposed atomic.Bool

	mu         sync.Mutex
	refreshing bool
	queue      []*pendingRequest
}

type pendingRequest struct {
	ctx  context.Context
	req  *Request
	done chan outcome
}

type outcome struct {
	resp *Response
	err  error
}

// handle resolves a request that came back 401.
func (r *refresher) handle(ctx context.Context, req *Request) (*Response, error) {
	r.mu.Lock()

	if !r.refreshing {
		// The request went out with a token that has since been replaced. The
		// refresh it needs already happened, so replay it instead of
		// spending the new refresh token.
		if current := r.client.AuthorizationToken(); req.token != "" && req.token != current {
			r.mu.Unlock()
			if current == "" {
				return nil, ErrUnauthenticated
			}
			r.client.metrics.Replayed.Inc()
			return r.client.replay(ctx, req)
		}
	}

	if r.refreshing {
		p := &pendingRequest{ctx: ctx, req: req, done: make(chan outcome, 1)}
		r.queue = append(r.queue, p)
		r.mu.Unlock()
		r.client.metrics.Queued.Inc()

		select {
		case out := <-p.done:
			return out.resp, out.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.refreshing = true
	r.mu.Unlock()

	r.client.logger.Debug("access token rejected, refreshing",
		"path", req.Path,
		"token_fp", cryptox.Fingerprint(req.token),
	)

	// The exchange must outlive the caller that happened to start it, other
	// callers are waiting on its result.
	exchangeCtx := context.WithoutCancel(ctx)
	err := r.exchange(exchangeCtx)
	if err != nil {
		// Drop the rejected token while still Refreshing, a late 401 carrying
		// it then fails as stale instead of starting another exchange.
		r.client.clearAuthorization(req.token)
	}

	r.mu.Lock()
	queue := r.queue
	r.queue = nil
	r.refreshing = false
	r.mu.Unlock()

	if err != nil {
		r.client.metrics.Refreshes.WithLabelValues("failure").Inc()
		r.client.logger.Warn("token refresh failed, signing out",
			"error", err,
			"pending", len(queue),
			"token_fp", cryptox.Fingerprint(req.token),
		)

		failure := fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		for _, p := range queue {
			p.done <- outcome{err: failure}
		}

		if r.onFailed != nil && !r.disposed.Load() {
			if signOutErr := r.onFailed(exchangeCtx); signOutErr != nil {
				r.client.logger.Error("sign out after failed refresh", "error", signOutErr)
			}
		}
		return nil, failure
	}

	r.client.metrics.Refreshes.WithLabelValues("success").Inc()
	r.client.logger.Debug("token refreshed",
		"pending", len(queue),
		"token_fp", cryptox.Fingerprint(r.client.AuthorizationToken()),
	)

	go r.replayQueue(queue)

	r.client.metrics.Replayed.Inc()
	return r.client.replay(ctx, req)
}

// exchange trades the stored refresh token for a new pair, persists it and
// installs the new access token as the default Authorization header.
func (r *refresher) exchange(ctx context.Context) error {
	stored, err := r.tokens.GetTokens(ctx)
	if err != nil {
		return fmt.Errorf("read stored tokens: %w", err)
	}
	if stored.RefreshToken == "" {
		return errors.New("no refresh token stored")
	}

	pair, err := r.client.RefreshToken(ctx, stored.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh exchange: %w", err)
	}

	if err := r.tokens.SaveTokens(ctx, pair); err != nil {
		return fmt.Errorf("persist refreshed tokens: %w", err)
	}

	r.client.SetAuthorizationHeader(pair.Token)
	return nil
}

// replayQueue replays the queued requests one at a time, in the order their
// 401s arrived.
func (r *refresher) replayQueue(queue []*pendingRequest) {
	for _, p := range queue {
		if err := p.ctx.Err(); err != nil {
			p.done <- outcome{err: err}
			continue
		}

		resp, err := r.client.replay(p.ctx, p.req)
		r.client.metrics.Replayed.Inc()
		p.done <- outcome{resp: resp, err: err}
	}
}
