package ignitesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/ignite/pkg/idx"
)

// Request describes one call against the API. It is kept after sending so a
// request rejected with 401 can be replayed with fresh credentials.
type Request struct {
	Method  string
	Path    string
	Body    []byte
	Headers map[string]string

	// token is the bearer token the request was last sent with
	token string

	// anonymous requests never enter the refresh interceptor, this covers the
	// refresh exchange itself and the endpoints that create credentials
	anonymous bool

	// replayed requests already went through one refresh, a second 401 is
	// returned to the caller as-is
	replayed bool
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into target.
func (r *Response) Decode(target any) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// Request sends method path with body and the client's default headers plus
// headers. body may be nil, a []byte, an io.Reader or any JSON-encodable value.
// Non-2xx responses are returned as *AppError or *StatusError, transport
// failures as *NetworkError.
func (c *Client) Request(
	ctx context.Context,
	method, path string,
	body any,
	headers map[string]string,
) (*Response, error) {
	req, err := newRequest(method, path, body, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Do sends req, routing a 401 through the refresh interceptor when one is
// registered.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.anonymous && !req.replayed {
		if r := c.currentInterceptor(); r != nil {
			return r.handle(ctx, req)
		}
	}

	if err := parseErrorResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// replay sends req once more with the current default Authorization header.
// A replayed request never triggers another refresh.
func (c *Client) replay(ctx context.Context, req *Request) (*Response, error) {
	retry := *req
	retry.replayed = true
	retry.Headers = make(map[string]string, len(req.Headers))
	for key, value := range req.Headers {
		if !strings.EqualFold(key, "Authorization") {
			retry.Headers[key] = value
		}
	}
	return c.Do(ctx, &retry)
}

// send performs a single HTTP round trip and reads the whole body.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
		}
	}

	var body io.Reader = http.NoBody
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Default headers first, per-request headers win
	for key, values := range c.DefaultHeaders() {
		httpReq.Header[key] = values
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if httpReq.Header.Get("X-Request-ID") == "" {
		httpReq.Header.Set("X-Request-ID", idx.New().String())
	}
	req.token = bearerToken(httpReq.Header.Get("Authorization"))

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	// Read body once for both error parsing and success decoding
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       bodyBytes,
	}, nil
}

// newRequest encodes body and builds a Request.
func newRequest(method, path string, body any, headers map[string]string) (*Request, error) {
	req := &Request{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string, len(headers)+1),
	}
	for key, value := range headers {
		req.Headers[key] = value
	}

	switch b := body.(type) {
	case nil:
	case []byte:
		req.Body = b
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body = data
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		req.Body = data
		if _, ok := req.Headers["Content-Type"]; !ok {
			req.Headers["Content-Type"] = "application/json"
		}
	}

	return req, nil
}

// doJSON sends a JSON request and decodes a JSON response into target. target
// may be nil when the response body is not needed.
func (c *Client) doJSON(ctx context.Context, req *Request, target any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return resp.Decode(target)
}
