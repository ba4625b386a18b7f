package slogx

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that logs every outgoing request with its
// request ID, status and duration.
type Transport struct {
	// Base performs the request, http.DefaultTransport when nil
	Base http.RoundTripper

	// Logger receives the request lines, slog.Default() when nil
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	logger := t.logger().With(
		"req_id", r.Header.Get("X-Request-ID"),
		"method", r.Method,
		"path", r.URL.Path,
	)

	resp, err := t.base().RoundTrip(r)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("http_request_failed",
			"error", err,
			"duration_ms", duration,
		)
		return nil, err
	}

	logger.Debug("http_request",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)
	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}
