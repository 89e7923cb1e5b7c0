// Package api is the HTTP client for the udhaari backend.
//
// Every backend operation the client uses is a method on Client. Methods
// return decoded models or an *Error for non-2xx answers; they never retry.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 4 << 20

// TokenSource returns the current session token, or "" when logged out.
type TokenSource func() string

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api/v1.
	BaseURL string

	// Timeout bounds each request. Zero means no bound.
	Timeout time.Duration

	// Token supplies the bearer token attached to each request.
	Token TokenSource

	// Metrics, when set, records per-request counters and latencies.
	Metrics *Metrics

	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
}

// Client is a configured backend client. It is safe for concurrent use.
type Client struct {
	base string
	http *http.Client
}

// New builds a Client. The cookie jar keeps any session cookie the backend
// sets, so credentialed endpoints work with cookie auth as well as bearer
// tokens.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be absolute", opts.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	next := opts.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	if opts.Metrics != nil {
		next = opts.Metrics.instrument(next)
	}
	next = &headerTransport{next: next, token: opts.Token}
	next = &loggingTransport{next: next}

	return &Client{
		base: strings.TrimRight(u.String(), "/"),
		http: &http.Client{
			Transport: next,
			Jar:       jar,
			Timeout:   opts.Timeout,
		},
	}, nil
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string {
	return c.base
}

func (c *Client) endpoint(path string, query url.Values) string {
	ep := c.base + path
	if len(query) > 0 {
		ep += "?" + query.Encode()
	}
	return ep
}

// do sends one request. in is JSON encoded when non-nil; out is decoded from
// the response when non-nil and the body is not empty.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(method, path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// groupPath builds /{groupId}/suffix with the id escaped.
func groupPath(groupID, suffix string) string {
	return "/" + url.PathEscape(groupID) + suffix
}
