package poller

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// the node serves one page; a tiny pool is enough
const (
	defaultMaxIdleConnsPerHost = 2
	defaultIdleConnTimeout     = 30 * time.Second
)

// Response holds the result of an HTTP request made by [Client].
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any error that occurred during the request.
	// nil indicates the request completed (though status may indicate an error).
	Error error
}

// Client is an HTTP client for polling the sensor node.
//
// The connect timeout bounds dialing; the read timeout bounds the wait for
// response headers and, added to the connect timeout, the whole exchange.
type Client struct {
	httpClient     *http.Client
	connectTimeout time.Duration
	readTimeout    time.Duration
}

// NewClient creates a new polling [Client] with the given timeouts.
func NewClient(connectTimeout, readTimeout time.Duration) *Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &Client{
		httpClient: &http.Client{
			// no global timeout - the per-request context bounds the exchange
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				ResponseHeaderTimeout: readTimeout,
				MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
				IdleConnTimeout:       defaultIdleConnTimeout,
			},
		},
		connectTimeout: connectTimeout,
		readTimeout:    readTimeout,
	}
}

// Fetch performs a plain GET against url and returns a structured [Response].
//
// No headers or body are sent. Fetch always returns a Response; errors are
// captured in the Error field rather than returned separately. This
// simplifies handling in the scheduler.
func (c *Client) Fetch(ctx context.Context, url string) Response {
	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout+c.readTimeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	resp, err := c.httpClient.Do(req)
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

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
