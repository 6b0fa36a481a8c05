// Package azure provides a retrying client for the Azure Cost Management query API.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	cfotel "github.com/Strob0t/CostLens/internal/adapter/otel"
	"github.com/Strob0t/CostLens/internal/domain/cost"
	"github.com/Strob0t/CostLens/internal/port/billing"
	"github.com/Strob0t/CostLens/internal/resilience"
)

// APIVersion is the Cost Management API version queried.
const APIVersion = "2023-11-01"

const (
	defaultTimeout    = 30 * time.Second
	defaultRetries    = 3
	defaultRetryAfter = 60 * time.Second
	maxErrorBody      = 4096
)

// throttledError is a 429 response carrying the server's backoff hint.
type throttledError struct {
	retryAfter time.Duration
}

func (e *throttledError) Error() string {
	return fmt.Sprintf("billing api throttled, retry after %s", e.retryAfter)
}

// IsBreakerNeutral reports errors that should not count against the circuit
// breaker: throttling, which is retried locally, and caller cancellation.
func IsBreakerNeutral(err error) bool {
	var t *throttledError
	return errors.As(err, &t) || errors.Is(err, context.Canceled)
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL           string
	SubscriptionID    string
	Timeout           time.Duration
	MaxRetries        int           // total attempts per query
	DefaultRetryAfter time.Duration // used when Retry-After is missing or malformed
	Limiter           *rate.Limiter // nil disables outbound pacing
	Transport         http.RoundTripper
}

// Client talks to the Cost Management query endpoint.
type Client struct {
	endpoint          string
	tokens            oauth2.TokenSource
	httpClient        *http.Client
	limiter           *rate.Limiter
	maxRetries        int
	defaultRetryAfter time.Duration
	breaker           *resilience.Breaker
	metrics           *cfotel.Metrics
	sleep             func(ctx context.Context, d time.Duration) error // for testing

	mu    sync.Mutex
	token string
}

// NewClient creates a query client for one subscription.
func NewClient(tokens oauth2.TokenSource, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = defaultRetries
	}
	if opts.DefaultRetryAfter <= 0 {
		opts.DefaultRetryAfter = defaultRetryAfter
	}
	return &Client{
		endpoint: fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.CostManagement/query?api-version=%s",
			strings.TrimRight(opts.BaseURL, "/"), opts.SubscriptionID, APIVersion),
		tokens: tokens,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: cfotel.Transport(opts.Transport),
		},
		limiter:           opts.Limiter,
		maxRetries:        opts.MaxRetries,
		defaultRetryAfter: opts.DefaultRetryAfter,
		sleep:             sleepContext,
	}
}

// SetBreaker attaches a circuit breaker to every upstream attempt.
// The breaker should treat IsBreakerNeutral errors as neutral.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// SetMetrics attaches metric instruments.
func (c *Client) SetMetrics(m *cfotel.Metrics) {
	c.metrics = m
}

// Query runs q, retrying on 429 up to the configured number of attempts.
// When every attempt is throttled it returns an empty degraded result and no error.
func (c *Client) Query(ctx context.Context, q cost.Query) (*billing.Result, error) {
	ctx, span := cfotel.StartQuerySpan(ctx, string(q.Timeframe), string(q.Granularity), len(q.Dimensions))
	defer span.End()
	start := time.Now()

	token, err := c.accessToken()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	body, err := json.Marshal(q.Request())
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	for attempt := 1; ; attempt++ {
		resp, err := c.attempt(ctx, token, body)
		var throttled *throttledError
		switch {
		case err == nil:
			res, err := decode(q, resp)
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
			c.metrics.RecordQuery(ctx, time.Since(start).Seconds(), false)
			return res, nil

		case errors.As(err, &throttled):
			if attempt >= c.maxRetries {
				slog.WarnContext(ctx, "upstream rate limit retries exhausted, returning degraded result",
					"attempts", attempt)
				c.metrics.RecordQuery(ctx, time.Since(start).Seconds(), true)
				return &billing.Result{Rows: []cost.Row{}, Degraded: true}, nil
			}
			slog.WarnContext(ctx, "upstream rate limited",
				"retry_after", throttled.retryAfter, "attempt", attempt, "max_attempts", c.maxRetries)
			if err := c.sleep(ctx, throttled.retryAfter); err != nil {
				return nil, fmt.Errorf("wait for retry: %w", err)
			}

		default:
			span.RecordError(err)
			return nil, err
		}
	}
}

// accessToken returns the cached bearer token, acquiring it on first use.
// The token is never refreshed for the lifetime of the client.
func (c *Client) accessToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("acquire token: %w", err)
	}
	c.token = tok.AccessToken
	return c.token, nil
}

// queryResponse is the subset of the query response CostLens reads.
type queryResponse struct {
	Properties struct {
		Columns []cost.Column `json:"columns"`
		Rows    [][]any       `json:"rows"`
	} `json:"properties"`
}

func (c *Client) attempt(ctx context.Context, token string, body []byte) (*queryResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			// Wait gives up early, without a context error, when the next
			// token lands after the deadline. Hold until the deadline so
			// callers see context.DeadlineExceeded.
			if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
				<-ctx.Done()
				return nil, fmt.Errorf("pace request: %w", ctx.Err())
			}
			return nil, fmt.Errorf("pace request: %w", err)
		}
	}

	var out *queryResponse
	call := func() error {
		var err error
		out, err = c.do(ctx, token, body)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	return out, err
}

func (c *Client) do(ctx context.Context, token string, body []byte) (*queryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.RecordAttempt(ctx, resp.StatusCode == http.StatusTooManyRequests)

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &throttledError{retryAfter: c.retryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &billing.StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var out queryResponse
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// retryAfter parses an integer-seconds Retry-After header.
func (c *Client) retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return c.defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func decode(q cost.Query, resp *queryResponse) (*billing.Result, error) {
	layout, err := cost.ResolveLayout(q, resp.Properties.Columns)
	if err != nil {
		return nil, fmt.Errorf("resolve columns: %w", err)
	}
	rows, err := layout.Decode(resp.Properties.Rows)
	if err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return &billing.Result{Rows: rows}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
