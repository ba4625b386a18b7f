package ignitesdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// SignIn exchanges email and password for a user and a credential pair.
// The response is returned as received, it may lack fields.
func (c *Client) SignIn(ctx context.Context, email, password string) (*SignInResponse, error) {
	req, err := newRequest(http.MethodPost, "/sessions", SignInRequest{
		Email:    email,
		Password: password,
	}, nil)
	if err != nil {
		return nil, err
	}
	req.anonymous = true

	var out SignInResponse
	if err := c.doJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshToken exchanges refreshToken for a new credential pair. The request
// itself never triggers the refresh interceptor.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	body, err := json.Marshal(RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to encode request body: %w", err)
	}

	req := &Request{
		Method:    http.MethodPost,
		Path:      "/sessions/refresh-token",
		Body:      body,
		Headers:   map[string]string{"Content-Type": "application/json"},
		anonymous: true,
	}

	var pair TokenPair
	if err := c.doJSON(ctx, req, &pair); err != nil {
		return TokenPair{}, err
	}
	if !pair.Complete() {
		return TokenPair{}, ErrIncompleteTokenPair
	}

	return pair, nil
}

// TokenSubject returns the "sub" claim of an access token without verifying
// its signature. Verification is the server's job; the client only reads the
// claim for logging. It returns "" for tokens that are not JWTs.
func TokenSubject(token string) string {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}
