// Package api is the HTTP binding of the Taskee REST API. One Client is
// shared by all state stores; it attaches the session token, maps 401/403 to
// the global session reset and decodes validation errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/metrics"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 100 * time.Second

const maxErrorBody = 1 << 20

// StatusError is a non-2xx response without a field error body.
type StatusError struct {
	Method string
	Route  string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Route, e.Status)
}

// Client talks to one Taskee server.
type Client struct {
	base          *url.URL
	http          *http.Client
	token         func() string
	onAuthFailure func(status int)
	log           zerolog.Logger
	timeout       time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient bases requests on a copy of hc. Its Timeout is kept unless
// WithTimeout is also given; hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log.With().Str("component", "api").Logger() }
}

// WithTokenSource sets where the bearer token is read from on each request.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// WithAuthFailureHandler sets the handler run on every 401 or 403.
func WithAuthFailureHandler(fn func(status int)) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

// New returns a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:  u,
		http:  &http.Client{Timeout: DefaultTimeout},
		token: func() string { return "" },
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.http
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.http = &hc
	return c, nil
}

// call describes one request. route is the path template used for metrics
// and errors; path is the expanded form.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
	out    any
}

func (c *Client) do(ctx context.Context, r call) error {
	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", r.method, r.route, err)
		}
		body = bytes.NewReader(b)
	}
	u := *c.base
	u.Path = c.base.Path + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.route, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveClientRequest(r.method, r.route, "error", time.Since(start))
		c.log.Debug().Err(err).Str("request_id", reqID).Str("method", r.method).Str("route", r.route).Msg("request failed")
		return fmt.Errorf("%s %s: %w", r.method, r.route, err)
	}
	defer resp.Body.Close()
	metrics.ObserveClientRequest(r.method, r.route, strconv.Itoa(resp.StatusCode), time.Since(start))
	c.log.Debug().
		Str("request_id", reqID).
		Str("method", r.method).
		Str("route", r.route).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("request")

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if c.onAuthFailure != nil {
			c.onAuthFailure(resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d: %w", r.method, r.route, resp.StatusCode, domerrors.ErrSessionExpired)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if fe := decodeFieldErrors(b); len(fe) > 0 {
			return fe
		}
		return &StatusError{Method: r.method, Route: r.route, Status: resp.StatusCode, Body: string(b)}
	}

	if r.out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s %s: decode response: %w", r.method, r.route, err)
	}
	return nil
}

// decodeFieldErrors reads a DRF-style {"field": ["msg", ...]} body. String
// values and nested objects are accepted too; nested keys are joined with a
// dot.
func decodeFieldErrors(b []byte) domerrors.FieldErrors {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	fe := domerrors.FieldErrors{}
	collect(fe, "", raw)
	return fe
}

func collect(fe domerrors.FieldErrors, prefix string, m map[string]any) {
	for k, v := range m {
		field := k
		if prefix != "" {
			field = prefix + "." + k
		}
		switch v := v.(type) {
		case string:
			fe.Add(field, v)
		case []any:
			for _, item := range v {
				switch item := item.(type) {
				case string:
					fe.Add(field, item)
				case map[string]any:
					collect(fe, field, item)
				}
			}
		case map[string]any:
			collect(fe, field, v)
		}
	}
}

// listBody accepts both a bare array and a paginated {"results": [...]}.
type listBody[T any] struct {
	items []T
}

func (l *listBody[T]) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '{' {
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(b, &page); err != nil {
			return err
		}
		l.items = page.Results
		return nil
	}
	return json.Unmarshal(b, &l.items)
}
