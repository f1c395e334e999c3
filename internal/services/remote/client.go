package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hookreel/internal/services"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	userAgent          = "hookreel/0.1.0"
	maxErrorBody       = 512
)

// Config captures the connection settings for one external service.
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Client issues single JSON requests against one external service. It never
// retries; retry policy belongs to the component that owns the call.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	headers    http.Header
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithHeader adds a header sent on every request. Blank values are ignored.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			return
		}
		if c.headers == nil {
			c.headers = http.Header{}
		}
		c.headers.Add(key, value)
	}
}

// New constructs a client for the named service.
func New(name string, cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		name:       strings.TrimSpace(name),
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.name == "" {
		client.name = "remote"
	}
	return client
}

// Name returns the service label used in error messages.
func (c *Client) Name() string {
	return c.name
}

// Timeout returns the bounded wait applied to each request.
func (c *Client) Timeout() time.Duration {
	if c == nil || c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request: http %d: %s", e.Service, e.StatusCode, strings.TrimSpace(e.Body))
}

// DecodeError reports a response body that does not match the expected shape.
type DecodeError struct {
	Service string
	Snippet string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s response: decode: %v (body: %s)", e.Service, e.Err, e.Snippet)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Post sends payload as JSON to path and returns the raw response body.
func (c *Client) Post(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s request: encode body: %w", c.name, err)
	}
	return c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(encoded))
}

// PostJSON sends payload and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out any) error {
	body, err := c.Post(ctx, path, payload)
	if err != nil {
		return err
	}
	return c.decode(body, out, false)
}

// PostStrict is PostJSON but rejects response fields unknown to out.
func (c *Client) PostStrict(ctx context.Context, path string, payload, out any) error {
	body, err := c.Post(ctx, path, payload)
	if err != nil {
		return err
	}
	return c.decode(body, out, true)
}

// GetJSON issues a GET with the provided query and decodes the response.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.decode(body, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%s request: base url not configured", c.name)
	}
	endpoint, err := url.JoinPath(c.baseURL, strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s request: build url: %w", c.name, err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s request: new request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %s request: http error (timeout=%s): %w", services.ErrTimeout, c.name, c.Timeout(), err)
		}
		return nil, fmt.Errorf("%s request: http error (timeout=%s): %w", c.name, c.Timeout(), err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s request: read body (timeout=%s): %w", c.name, c.Timeout(), err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &StatusError{
			Service:    c.name,
			StatusCode: resp.StatusCode,
			Body:       Snippet(string(data), maxErrorBody),
			RetryAfter: retryAfter,
		}
	}
	return data, nil
}

// isTimeout reports whether err is the client's own bounded wait expiring
// rather than the caller giving up.
func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) decode(body []byte, out any, strict bool) error {
	if out == nil {
		return nil
	}
	var err error
	if strict {
		err = DecodeStrict(body, out)
	} else {
		err = json.Unmarshal(body, out)
	}
	if err != nil {
		return &DecodeError{Service: c.name, Snippet: Snippet(string(body), 160), Err: err}
	}
	return nil
}

// DecodeStrict unmarshals data into target, rejecting unknown fields and
// trailing content.
func DecodeStrict(data []byte, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	if decoder.More() {
		return fmt.Errorf("unexpected trailing content")
	}
	return nil
}

// Snippet collapses whitespace and truncates content for error messages.
func Snippet(content string, limit int) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	runes := []rune(clean)
	if limit > 0 && len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
