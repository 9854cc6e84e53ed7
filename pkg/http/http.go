// Package http provides a fluent, retry-aware outbound HTTP client.
//
// Usage:
//
//	resp, err := client.Post("https://api.resend.com/emails").
//	    Bearer(apiKey).
//	    Body(payload).
//	    Retry(3, 500*time.Millisecond).
//	    Send(ctx)
//	if err == nil {
//	    err = resp.Throw()
//	}
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/shashiranjanraj/souq/pkg/logger"
)

// Client issues fluent requests over a shared connection-pooled transport.
type Client struct {
	http    *gohttp.Client
	timeout time.Duration
}

// New returns a Client. A nil transport uses a pooled default.
func New(transport gohttp.RoundTripper) *Client {
	if transport == nil {
		transport = &gohttp.Transport{
			Proxy:               gohttp.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	return &Client{http: &gohttp.Client{Transport: transport}, timeout: 10 * time.Second}
}

// Get starts a GET request.
func (c *Client) Get(url string) *Request { return c.newRequest(gohttp.MethodGet, url) }

// Post starts a POST request.
func (c *Client) Post(url string) *Request { return c.newRequest(gohttp.MethodPost, url) }

// Put starts a PUT request.
func (c *Client) Put(url string) *Request { return c.newRequest(gohttp.MethodPut, url) }

// Delete starts a DELETE request.
func (c *Client) Delete(url string) *Request { return c.newRequest(gohttp.MethodDelete, url) }

func (c *Client) newRequest(method, url string) *Request {
	return &Request{
		client:    c,
		method:    method,
		url:       url,
		headers:   map[string]string{"Accept": "application/json"},
		timeout:   c.timeout,
		attempts:  1,
		retryWait: 500 * time.Millisecond,
	}
}

// ------------------- Request -------------------

// Request is a fluent HTTP request builder.
type Request struct {
	client    *Client
	method    string
	url       string
	headers   map[string]string
	body      interface{}
	timeout   time.Duration
	attempts  int
	retryWait time.Duration
}

// Header adds a single header to the request.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Bearer sets the Authorization: Bearer <token> header.
func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Body sets the request body. v is marshalled to JSON unless it is a
// string or []byte.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// Timeout sets the per-attempt timeout.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry configures automatic retries on transport errors, 429 and 5xx.
// n is total attempts (1 = no retry), wait is the initial backoff (doubles each attempt).
func (r *Request) Retry(n int, wait time.Duration) *Request {
	if n < 1 {
		n = 1
	}
	r.attempts = n
	r.retryWait = wait
	return r
}

// ------------------- Send -------------------

// Send executes the request. A non-2xx final response is returned without
// error; call Throw to turn it into one.
func (r *Request) Send(ctx context.Context) (*Response, error) {
	var (
		resp    *Response
		lastErr error
	)
	backoff := r.retryWait

	for attempt := 1; attempt <= r.attempts; attempt++ {
		resp, lastErr = r.do(ctx)
		if lastErr == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if attempt == r.attempts {
			break
		}

		logger.WithCtx(ctx).Warn("http: request failed, retrying",
			"url", r.url, "attempt", attempt, "backoff", backoff, "error", lastErr, "status", statusOf(resp))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if lastErr != nil {
		return nil, fmt.Errorf("http: all %d attempts failed for %s %s: %w", r.attempts, r.method, r.url, lastErr)
	}
	return resp, nil
}

func (r *Request) do(ctx context.Context) (*Response, error) {
	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := r.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Raw: raw}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	if r.body == nil {
		return nil, "", nil
	}
	switch v := r.body.(type) {
	case string:
		return bytes.NewBufferString(v), "text/plain; charset=utf-8", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

func retryable(status int) bool {
	return status == gohttp.StatusTooManyRequests || status >= 500
}

func statusOf(r *Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode
}

// ------------------- Response -------------------

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Throw returns an error if the response status is not 2xx.
func (r *Response) Throw() error {
	if !r.OK() {
		return fmt.Errorf("http: request failed with status %d: %s", r.StatusCode, string(r.Raw))
	}
	return nil
}
