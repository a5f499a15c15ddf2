// Package webhook posts analysis reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ccollicutt/boxlog/pkg/output"
)

const (
	// DefaultTimeout bounds one delivery when SendOptions.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	// RunIDHeader carries the report's run id so receivers can deduplicate.
	RunIDHeader = "X-Boxlog-Run-Id"

	userAgent    = "boxlog-webhook"
	maxBodyBytes = 1 << 20
)

// StatusError is returned for a non-2xx reply.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.Code)
}

// Client delivers reports. The zero value is not usable; call NewClient.
type Client struct {
	http    *http.Client
	retries int
	backoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRetries re-sends after transport errors and 5xx replies, waiting
// backoff, then twice backoff, and so on between attempts.
func WithRetries(n int, wait time.Duration) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
		c.backoff = wait
	}
}

// NewClient creates a webhook client.
func NewClient(opts ...Option) *Client {
	c := &Client{http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendOptions addresses one delivery.
type SendOptions struct {
	URL     string
	Token   string        // sent as a Bearer token when set
	Timeout time.Duration // per delivery, all attempts included
}

// Response is the outcome of a delivery.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Attempts   int
	Error      error
}

// Success reports a 2xx reply with no error.
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts report as JSON. It never returns nil; failures are in Response.Error.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	defer func() { resp.Duration = time.Since(start) }()

	payload, err := json.Marshal(report)
	if err != nil {
		resp.Error = fmt.Errorf("encoding report: %w", err)
		return resp
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("User-Agent", userAgent)
	if report.Metadata.RunID != "" {
		header.Set(RunIDHeader, report.Metadata.RunID)
	}
	if opts.Token != "" {
		header.Set("Authorization", "Bearer "+opts.Token)
	}

	_ = backoff.Retry(func() error {
		resp.Attempts++
		resp.StatusCode, resp.Body, resp.Error = c.post(ctx, opts.URL, header, payload)
		if resp.Error != nil && !c.retryable(resp) {
			return backoff.Permanent(resp.Error)
		}
		return resp.Error
	}, c.policy(ctx))

	return resp
}

// policy doubles the wait after each failed attempt, starting at c.backoff,
// and stops after c.retries re-sends or when ctx ends.
func (c *Client) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.backoff
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0 // the delivery timeout bounds the total
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.retries)), ctx)
}

func (c *Client) post(ctx context.Context, url string, header http.Header, payload []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", errBuild, err)
	}
	req.Header = header.Clone()

	httpResp, err := c.http.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("posting report: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return httpResp.StatusCode, "", fmt.Errorf("reading reply: %w", err)
	}
	if httpResp.StatusCode >= 400 {
		return httpResp.StatusCode, string(body), &StatusError{Code: httpResp.StatusCode}
	}
	return httpResp.StatusCode, string(body), nil
}

// retryable is true for transport failures and server errors. A request that
// could not be built, or a 4xx reply, will not improve on a second attempt.
func (c *Client) retryable(resp *Response) bool {
	if resp.Error == nil {
		return false
	}
	var se *StatusError
	if errors.As(resp.Error, &se) {
		return se.Code >= 500
	}
	return resp.StatusCode == 0 && !errors.Is(resp.Error, errBuild)
}

// Probe sends a HEAD request to url and returns the status code. Any reply,
// including 4xx and 5xx, means the endpoint is reachable.
func (c *Client) Probe(ctx context.Context, url, token string, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errBuild, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

var errBuild = errors.New("building request")
