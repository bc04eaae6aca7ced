package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// dashboard payloads are a few bytes; anything beyond this is not ours
const maxResponseBodySize = 64 << 10

const (
	defaultMaxIdleConnsPerHost = 4
	defaultMaxConnsPerHost     = 8
	defaultIdleConnTimeout     = 90 * time.Second
)

// Request describes a single poll request.
type Request struct {
	// Method is the HTTP method. Empty defaults to GET.
	Method string

	// URL is the resource to fetch.
	URL string

	// Headers are sent with the request. Accept defaults to application/json.
	Headers map[string]string

	// Timeout bounds the whole request including the body read.
	Timeout time.Duration
}

// Response holds the result of a [Client.Fetch] call.
type Response struct {
	// Body is the response body, truncated to 64KB.
	Body []byte

	// StatusCode is zero if no response was received.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error is set when the request could not be completed.
	Error error
}

// Client is an HTTP client tuned for polling a small set of JSON resources
// at a high rate. Connections are kept alive between polls.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a polling [Client].
//
// Timeouts are applied per request via [Request.Timeout], not on the
// underlying http.Client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Fetch performs req and returns a structured [Response].
//
// Fetch always returns a Response; errors are captured in the Error field.
// A non-2xx status is not an error at this layer.
func (c *Client) Fetch(ctx context.Context, req Request) Response {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	httpReq.Header.Set("Accept", "application/json")
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes idle connections. The client stays usable afterwards.
// Safe to call on a nil client and multiple times.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
