// Package base provides the HTTP transport shared by the Gramps API client and
// the token manager: bounded concurrency, circuit breaking and retries for reads.
package base

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/olgasafonova/gramps-mcp-server/internal/errors"
	"github.com/olgasafonova/gramps-mcp-server/internal/infra"
	"github.com/olgasafonova/gramps-mcp-server/metrics"
	"github.com/olgasafonova/gramps-mcp-server/tracing"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultTimeout for API requests
	DefaultTimeout = 30 * time.Second

	// MaxConcurrentRequests limits parallel upstream calls
	MaxConcurrentRequests = 5

	// DefaultMaxRetry bounds attempts for idempotent requests
	DefaultMaxRetry = 3

	// UserAgent identifies the server to Gramps Web
	UserAgent = "gramps-mcp-server/1.0"
)

// Client wraps an *http.Client with the resilience policies every upstream call shares.
type Client struct {
	HTTPClient     *http.Client
	Logger         *slog.Logger
	CircuitBreaker *infra.CircuitBreaker
	Semaphore      chan struct{}
	MaxRetry       int

	// sleep is swapped in tests to skip backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.HTTPClient = c
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.Logger = l
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.HTTPClient = newHTTPClient(d)
	}
}

// WithMaxRetry sets how many attempts a GET may take
func WithMaxRetry(n int) ClientOption {
	return func(client *Client) {
		if n > 0 {
			client.MaxRetry = n
		}
	}
}

// WithCircuitBreaker sets a custom circuit breaker
func WithCircuitBreaker(cb *infra.CircuitBreaker) ClientOption {
	return func(client *Client) {
		client.CircuitBreaker = cb
	}
}

// NewClient creates a new base client with default settings
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		HTTPClient:     newHTTPClient(DefaultTimeout),
		Logger:         slog.Default(),
		CircuitBreaker: infra.NewCircuitBreaker(),
		Semaphore:      make(chan struct{}, MaxConcurrentRequests),
		MaxRetry:       DefaultMaxRetry,
		sleep:          sleepCtx,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CircuitBreakerStats returns the current circuit breaker state
func (c *Client) CircuitBreakerStats() infra.CircuitBreakerStats {
	return c.CircuitBreaker.Stats()
}

// AcquireSlot blocks until a request slot is available or context is canceled
func (c *Client) AcquireSlot(ctx context.Context) error {
	select {
	case c.Semaphore <- struct{}{}:
		return nil
	default:
	}

	metrics.RateLimitWaits.Inc()
	select {
	case c.Semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context canceled while waiting for a request slot: %w", ctx.Err())
	}
}

// ReleaseSlot releases a request slot
func (c *Client) ReleaseSlot() {
	<-c.Semaphore
}

// CheckCircuitBreaker returns nil if requests are allowed, or an error if the circuit is open
func (c *Client) CheckCircuitBreaker() error {
	if !c.CircuitBreaker.Allow() {
		stats := c.CircuitBreaker.Stats()
		return &infra.ErrCircuitOpen{
			State:    stats.State,
			RetryAt:  stats.RetryAt,
			Failures: stats.ConsecutiveFails,
		}
	}
	return nil
}

// Request describes one upstream call.
type Request struct {
	Method      string
	URL         string
	Endpoint    string // templated path used for metrics and spans, e.g. "people/{handle}"
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header
}

// Response is a fully read upstream response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Do sends req. GET requests are retried on transport errors, 429 and 5xx.
// Writes go out exactly once. Non-2xx responses are returned, not turned into errors,
// so callers can apply their own status handling (for example refreshing a token on 401).
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.URL
	}

	ctx, span := tracing.StartSpan(ctx, "gramps.api "+req.Method+" "+endpoint)
	defer span.End()

	if err := c.CheckCircuitBreaker(); err != nil {
		span.SetStatus(codes.Error, "circuit open")
		return nil, err
	}

	if err := c.AcquireSlot(ctx); err != nil {
		return nil, err
	}
	defer c.ReleaseSlot()

	target := req.URL
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	attempts := 1
	if req.Method == http.MethodGet {
		attempts = c.MaxRetry
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			metrics.GrampsAPIRetries.WithLabelValues(retryReason(lastErr)).Inc()
			backoff := time.Duration(attempt*attempt) * 100 * time.Millisecond
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, fmt.Errorf("context canceled during backoff: %w", err)
			}
		}

		resp, err := c.once(ctx, req, target, endpoint)
		if err != nil {
			lastErr = err
			c.Logger.Warn("Gramps API request failed",
				"attempt", attempt+1,
				"method", req.Method,
				"endpoint", endpoint,
				"error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if resp.Status == http.StatusTooManyRequests && attempt+1 < attempts {
			if seconds, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil {
				if err := c.sleep(ctx, time.Duration(seconds)*time.Second); err != nil {
					return nil, err
				}
			}
			lastErr = &statusErr{resp}
			continue
		}

		if resp.Status >= 500 && attempt+1 < attempts {
			lastErr = &statusErr{resp}
			continue
		}

		if resp.Status >= 500 {
			c.CircuitBreaker.RecordFailure()
		} else {
			c.CircuitBreaker.RecordSuccess()
		}
		tracing.AddGrampsAttributes(span, req.Method, endpoint, resp.Status)
		if resp.Status >= 400 {
			span.SetStatus(codes.Error, http.StatusText(resp.Status))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return resp, nil
	}

	c.CircuitBreaker.RecordFailure()
	tracing.RecordError(span, lastErr)
	span.SetStatus(codes.Error, "request failed")
	return nil, classify(lastErr)
}

func (c *Client) once(ctx context.Context, req Request, target, endpoint string) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		metrics.RecordAPICall(req.Method, endpoint, time.Since(start).Seconds(), 0)
		return nil, err
	}
	data, err := readAndClose(resp)
	metrics.RecordAPICall(req.Method, endpoint, time.Since(start).Seconds(), resp.StatusCode)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// statusErr carries a retryable response between attempts.
type statusErr struct{ resp *Response }

func (e *statusErr) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.resp.Status, truncate(string(e.resp.Body), 200))
}

func retryReason(err error) string {
	var se *statusErr
	if errors.As(err, &se) {
		if se.resp.Status == http.StatusTooManyRequests {
			return "rate_limited"
		}
		return "server_error"
	}
	return "transport"
}

// classify turns transport failures into the user-facing API errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewTimeoutError(err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperrors.NewConnectError(err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readAndClose reads the response body and closes it
func readAndClose(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return body, err
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// newHTTPClient creates an HTTP client with tuned transport settings
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
