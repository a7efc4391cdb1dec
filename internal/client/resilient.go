package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/voroninsergei/oneflow-ai-sub000/internal/config"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/router"
)

// IdempotencyKeyHeader carries the caller-supplied idempotency key so retried
// attempts are safe to repeat server-side.
const IdempotencyKeyHeader = "Idempotency-Key"

// Client wraps outbound HTTP calls with a circuit breaker pre-check, retries
// with exponential backoff and jitter, and per-attempt timeouts.
type Client struct {
	breakers   *router.BreakerRegistry
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// New creates a resilient client. The underlying http.Client applies the
// configured connect and total per-attempt timeouts.
func New(breakers *router.BreakerRegistry, cfg config.ResilienceConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 250 * time.Millisecond
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	httpClient := &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}

	return &Client{
		breakers:   breakers,
		httpClient: httpClient,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
	}
}

// NewWithHTTPClient creates a resilient client around an existing http.Client.
// Used by tests and callers that manage their own transport.
func NewWithHTTPClient(breakers *router.BreakerRegistry, httpClient *http.Client, maxRetries int, baseDelay time.Duration) *Client {
	return &Client{
		breakers:   breakers,
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// WithIdempotencyKey attaches an idempotency key to the request. The header
// survives request cloning, so every retry attempt carries the same key.
func WithIdempotencyKey(req *http.Request, key string) *http.Request {
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

// Do executes the request against the named provider. It fails fast with
// *CircuitOpenError when the breaker is open, retries retryable failures
// (timeouts, connection errors, 5xx) up to maxRetries attempts, and reports
// the final outcome to the breaker. 4xx responses are returned to the caller
// unmodified and are not treated as provider failures.
func (c *Client) Do(ctx context.Context, provider string, req *http.Request) (*http.Response, error) {
	if !c.breakers.IsAvailable(provider) {
		return nil, &CircuitOpenError{Provider: provider}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt-1); err != nil {
				// Caller cancelled mid-retry: not a provider failure
				return nil, err
			}
		}

		attemptReq, err := cloneRequest(ctx, req)
		if err != nil {
			// Caller-side fault, not a provider failure
			return nil, err
		}

		resp, err := c.httpClient.Do(attemptReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if !retryable(err) {
				break
			}
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("provider returned status %d", resp.StatusCode)
			drain(resp)
			continue
		}

		// Anything below 500 means the provider itself is healthy.
		c.breakers.RecordSuccess(provider)
		return resp, nil
	}

	c.breakers.RecordFailure(provider)
	return nil, &RetryExhaustedError{Provider: provider, Attempts: c.maxRetries, Err: lastErr}
}

// backoff sleeps for baseDelay * 2^attempt plus random jitter up to baseDelay,
// aborting immediately if the context is cancelled.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.baseDelay * (1 << attempt)
	delay += time.Duration(rand.Int63n(int64(c.baseDelay) + 1))

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// cloneRequest produces a fresh request for an attempt, rewinding the body
// via GetBody so retries resend the full payload.
func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.Body == nil || req.GetBody == nil {
		return clone, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

// retryable reports whether a transport error is worth retrying: timeouts,
// connection errors, and truncated responses.
func retryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
