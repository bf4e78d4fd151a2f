// Package httpclient implements the outbound HTTP port on top of resty.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/menezmethod/macrofx/internal/deps"
)

// Client is a deps.HTTPClient backed by a resty client.
// Non-2xx answers are returned as responses, not errors.
type Client struct {
	rc *resty.Client
}

var _ deps.HTTPClient = (*Client)(nil)

// New returns a client whose requests give up after timeout.
// Outgoing requests carry trace context when a tracer provider is installed.
func New(timeout time.Duration) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "macrofx")
	return &Client{rc: rc}
}

// Get implements deps.HTTPClient.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*deps.Response, error) {
	resp, err := c.request(ctx, header).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return toResponse(resp), nil
}

// Post implements deps.HTTPClient. body is sent as JSON.
func (c *Client) Post(ctx context.Context, url string, body any, header http.Header) (*deps.Response, error) {
	resp, err := c.request(ctx, header).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", url, err)
	}
	return toResponse(resp), nil
}

func (c *Client) request(ctx context.Context, header http.Header) *resty.Request {
	req := c.rc.R().SetContext(ctx)
	if len(header) > 0 {
		req.SetHeaderMultiValues(header)
	}
	return req
}

func toResponse(r *resty.Response) *deps.Response {
	return &deps.Response{
		StatusCode: r.StatusCode(),
		Header:     r.Header(),
		Body:       r.Body(),
	}
}
