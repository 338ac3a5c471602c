package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// tokenCtxKey carries the caller's bearer credential through a request.
type tokenCtxKey struct{}

// WithToken returns a context carrying the bearer credential to attach to
// upstream calls. The auth middleware sets this from the incoming request.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenCtxKey{}).(string)
	return tok
}

// Refresher exchanges an expired bearer credential for a fresh one. A 401
// from the upstream API triggers exactly one refresh-and-retry; a second 401
// surfaces as an auth error.
type Refresher interface {
	Refresh(ctx context.Context, oldToken string) (string, error)
}

// Client is a typed HTTP client for the remote learning API. All business
// logic (scoring, AI generation, payments, persistence) lives behind it; the
// gateway only consumes its request/response contracts.
type Client struct {
	baseURL   string
	http      *http.Client
	refresher Refresher
	log       zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRefresher installs the 401 token refresher.
func WithRefresher(r Refresher) Option {
	return func(c *Client) { c.refresher = r }
}

// WithHTTPClient overrides the underlying http.Client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates an upstream API client.
func New(baseURL string, timeout time.Duration, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "upstream_client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the uniform {success, message, data} wrapper used by every
// upstream endpoint.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// do issues one request and decodes the envelope's data into out (out may be
// nil for command endpoints). It attaches the bearer credential from ctx and
// applies the refresh-then-retry-once policy on 401.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.doOnce(ctx, method, path, body, out, true)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out interface{}, allowRefresh bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindValidation, Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindValidation, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := tokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized && allowRefresh && c.refresher != nil {
		io.Copy(io.Discard, res.Body)
		fresh, refreshErr := c.refresher.Refresh(ctx, tokenFrom(ctx))
		if refreshErr != nil {
			return statusError(res.StatusCode, "token refresh failed", nil)
		}
		c.log.Debug().Str("path", path).Msg("Token refreshed, retrying once")
		return c.doOnce(WithToken(ctx, fresh), method, path, body, out, false)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return networkError(err)
	}

	var env envelope
	if len(raw) > 0 {
		// A malformed envelope on an error status still maps by status below.
		_ = json.Unmarshal(raw, &env)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = res.Status
		}
		return statusError(res.StatusCode, msg, env.Fields)
	}

	if !env.Success && env.Message != "" {
		return &APIError{Kind: KindValidation, Status: res.StatusCode, Message: env.Message, Fields: env.Fields}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &APIError{Kind: KindServer, Status: res.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
		}
	}
	return nil
}
