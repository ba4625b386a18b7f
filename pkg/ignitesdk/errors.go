package ignitesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultErrorMessage is shown when a failure carries no server message.
const DefaultErrorMessage = "Operation not possible. Try again later."

var (
	// ErrUnauthenticated is returned when the session could not be recovered:
	// the refresh exchange failed or there were no credentials to refresh with.
	// It always coincides with a forced sign-out.
	ErrUnauthenticated = errors.New("ignitesdk: unauthenticated")

	// ErrIncompleteTokenPair is returned when the server answers a credential
	// request without both the access and the refresh token.
	ErrIncompleteTokenPair = errors.New("ignitesdk: incomplete token pair")
)

// ============================================================================
// NetworkError - no response reached the client
// ============================================================================

// NetworkError is returned when a request produced no HTTP response, for
// example when the server is unreachable or the connection dropped.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network failure: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ============================================================================
// AppError - server responded with a human readable message
// ============================================================================

// AppError is an HTTP error response that carried a message meant for the
// user. The message is surfaced verbatim.
type AppError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return e.Message
}

// ============================================================================
// StatusError - server responded with an error and nothing else
// ============================================================================

// StatusError is an HTTP error response without a usable message.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ============================================================================
// Error Helpers
// ============================================================================

// UserMessage picks the text to show for err. Application errors carry the
// server's message, everything else falls back to fallback (or
// DefaultErrorMessage when fallback is empty). ErrUnauthenticated always
// falls back, the refresh endpoint's message is not meant for the user.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if !errors.Is(err, ErrUnauthenticated) && errors.As(err, &appErr) {
		return appErr.Message
	}
	if fallback == "" {
		return DefaultErrorMessage
	}
	return fallback
}

// StatusCode extracts the HTTP status from an AppError or StatusError.
// It returns 0 for any other error.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// parseErrorResponse turns a non-2xx response into a typed error. It returns
// nil for successful responses.
func parseErrorResponse(resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// The API answers errors as {"status": "error", "message": "..."}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &body); err == nil && strings.TrimSpace(body.Message) != "" {
		return &AppError{
			StatusCode: resp.StatusCode,
			Message:    body.Message,
		}
	}

	return &StatusError{StatusCode: resp.StatusCode}
}
