// Package fetch provides the cache-bypassing HTTP client used for every
// remote read and write in the dataspace core. Discovery and decision
// polling must always observe current remote state, so all requests demand
// a no-store policy from intermediaries.
package fetch

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hoelk-f/heatspace/errors"
)

// TokenSource supplies the bearer credential for authenticated pod access.
// A nil TokenSource, or one reporting ok=false, yields anonymous requests.
type TokenSource interface {
	Token() (token string, ok bool)
}

// StaticToken is a TokenSource backed by a fixed credential string.
type StaticToken string

// Token implements TokenSource. An empty string means not logged in.
func (s StaticToken) Token() (string, bool) {
	return string(s), s != ""
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithTokenSource attaches a credential source for authenticated requests.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithBaseClient replaces the underlying resty client, used by tests to
// point at httptest servers with custom transports.
func WithBaseClient(rc *resty.Client) Option {
	return func(c *Client) {
		c.http = rc
	}
}

// Client issues cache-bypassing HTTP requests, optionally authenticated.
type Client struct {
	http   *resty.Client
	tokens TokenSource
}

// New creates a Client with the demanded no-store cache policy applied to
// every request.
func New(opts ...Option) *Client {
	c := &Client{
		http: resty.New().SetTimeout(30 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetHeader("Cache-Control", "no-cache, no-store")
	c.http.SetHeader("Pragma", "no-cache")
	return c
}

// Authenticated reports whether the client currently holds a credential.
func (c *Client) Authenticated() bool {
	if c.tokens == nil {
		return false
	}
	_, ok := c.tokens.Token()
	return ok
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.SetAuthToken(token)
		}
	}
	return req
}

// Get fetches a resource. Transport failures are classified unreachable;
// the HTTP status is not interpreted here because read paths differ in how
// they treat non-success responses.
func (c *Client) Get(ctx context.Context, url, accept string) (*resty.Response, error) {
	req := c.request(ctx)
	if accept != "" {
		req.SetHeader("Accept", accept)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, errors.WrapUnreachable(err, "fetch", "Get", "request "+url)
	}
	return resp, nil
}

// PostTurtle delivers a Turtle resource to a container, naming it with the
// given slug. The caller interprets the response status; creating a
// resource in a third party's storage is not idempotent, so this method
// never retries.
func (c *Client) PostTurtle(ctx context.Context, url, slug, body string) (*resty.Response, error) {
	req := c.request(ctx).
		SetHeader("Content-Type", "text/turtle").
		SetBody(body)
	if slug != "" {
		req.SetHeader("Slug", slug)
	}
	resp, err := req.Post(url)
	if err != nil {
		return nil, errors.WrapUnreachable(err, "fetch", "PostTurtle", "post to "+url)
	}
	return resp, nil
}
