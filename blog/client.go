// Package blog is the HTTP transport for the blog entries API: wire types,
// response shape validation and typed transport errors.
package blog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const DefaultBaseURL = "http://localhost:8080/api"

// maxErrorBody caps how much of a failed response is kept on a TransportError.
const maxErrorBody = 4 << 10

type Client struct {
	http    *http.Client
	baseURL *url.URL
	tokens  oauth2.TokenSource // optional; nil means anonymous
	log     zerolog.Logger

	optErr error // first invalid option, returned by New
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		u, err := url.Parse(raw)
		if err != nil {
			c.optErr = fmt.Errorf("parse base URL: %w", err)
			return
		}
		c.baseURL = u
	}
}

// WithTokenSource authenticates every request with a bearer token.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(opts ...Option) (*Client, error) {
	u, err := url.Parse(DefaultBaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		http:    http.DefaultClient,
		baseURL: u,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.optErr != nil {
		return nil, c.optErr
	}
	if c.baseURL.Scheme == "" || c.baseURL.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", c.baseURL.String())
	}

	// wrap a copy so the caller's client is left untouched
	hc := *c.http
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if c.tokens != nil {
		base = &oauth2.Transport{Source: c.tokens, Base: base}
	}
	hc.Transport = &LoggingTransport{Base: base, Logger: c.log}
	c.http = &hc
	return c, nil
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string { return c.baseURL.String() }

func (c *Client) newReq(ctx context.Context, method, p string, q url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", p, err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends the request and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, method, p string, q url.Values, body any) ([]byte, error) {
	req, err := c.newReq(ctx, method, p, q, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: p, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &TransportError{Method: method, Path: p, Status: resp.StatusCode, Body: string(b)}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: p, Status: resp.StatusCode, Err: err}
	}
	return b, nil
}

// ListEntries fetches one page of entries (page starts at 0).
func (c *Client) ListEntries(ctx context.Context, page, size int) ([]byte, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return c.do(ctx, http.MethodGet, "/entries", q, nil)
}

// GetEntry fetches a single entry.
func (c *Client) GetEntry(ctx context.Context, id int64) ([]byte, error) {
	return c.do(ctx, http.MethodGet, entryPath(id), nil, nil)
}

func (c *Client) CreateEntry(ctx context.Context, e NewEntry) error {
	_, err := c.do(ctx, http.MethodPost, "/entries", nil, e)
	return err
}

func (c *Client) LikeEntry(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPost, entryPath(id)+"/like", nil, map[string]bool{"likedByMe": true})
	return err
}

func (c *Client) DeleteEntry(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, entryPath(id), nil, nil)
	return err
}

func entryPath(id int64) string {
	return "/entries/" + strconv.FormatInt(id, 10)
}
