// Package frontegg is a small REST client for the Frontegg identity vendor:
// vendor tokens, users, entitlements, plans, SSO prelogin and the hosted login
// metadata.
package frontegg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var vendorRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "frontegg_requests_total",
		Help: "Total number of calls made to the Frontegg API",
	},
	[]string{"endpoint", "status"},
)

// Collectors returns the metrics this package records, for registration by main.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{vendorRequestsTotal, tokenExchangesTotal}
}

// APIError is a non-2xx answer from the vendor. SessionToken is set when the
// call was authenticated with the end user's session token rather than the
// vendor token.
type APIError struct {
	Endpoint     string
	StatusCode   int
	Body         string
	Message      string
	SessionToken bool
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Endpoint, e.StatusCode, msg)
}

// StatusCode returns the vendor status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsSessionRejected reports whether the vendor refused the end user's
// session token, meaning the user has to sign in again.
func IsSessionRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.SessionToken && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a vendor 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

type Options struct {
	BaseURL    string
	APIURL     string
	HTTPClient *http.Client
	Tokens     *TokenCache
}

type Client struct {
	baseURL    string
	apiURL     string
	httpClient *http.Client
	tokens     *TokenCache
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    opts.BaseURL,
		apiURL:     opts.APIURL,
		httpClient: hc,
		tokens:     opts.Tokens,
	}
}

// Tokens exposes the vendor token cache the client authenticates with.
func (c *Client) Tokens() *TokenCache {
	return c.tokens
}

type call struct {
	endpoint string
	method   string
	url      string
	bearer   string
	headers  map[string]string
	body     any
	rawBody  io.Reader
	ctype    string
}

// do executes the call and returns the raw response body of a 2xx answer.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	var body io.Reader
	ctype := cl.ctype
	switch {
	case cl.rawBody != nil:
		body = cl.rawBody
	case cl.body != nil:
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", cl.endpoint, err)
		}
		body = bytes.NewReader(b)
		ctype = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, cl.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", cl.endpoint, err)
	}
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	if cl.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+cl.bearer)
	}
	for k, v := range cl.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		vendorRequestsTotal.WithLabelValues(cl.endpoint, "error").Inc()
		return nil, fmt.Errorf("%s request failed: %w", cl.endpoint, err)
	}
	defer resp.Body.Close()

	vendorRequestsTotal.WithLabelValues(cl.endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", cl.endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(cl.endpoint, resp.StatusCode, respBody)
	}
	return respBody, nil
}

// vendorDo runs cl with the cached vendor token. A 401 drops the cached token
// so the next call exchanges a fresh one.
func (c *Client) vendorDo(ctx context.Context, cl call) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	cl.bearer = token
	b, err := c.do(ctx, cl)
	if StatusCode(err) == http.StatusUnauthorized {
		c.tokens.Invalidate(ctx)
	}
	return b, err
}

// sessionDo runs cl with the end user's session token.
func (c *Client) sessionDo(ctx context.Context, sessionToken string, cl call) ([]byte, error) {
	cl.bearer = sessionToken
	b, err := c.do(ctx, cl)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		apiErr.SessionToken = true
	}
	return b, err
}

func newAPIError(endpoint string, status int, body []byte) *APIError {
	e := &APIError{Endpoint: endpoint, StatusCode: status, Body: string(bytes.TrimSpace(body))}
	var parsed struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		e.Message = parsed.Message
		if e.Message == "" && len(parsed.Errors) > 0 {
			e.Message = parsed.Errors[0]
		}
	}
	return e
}

func decode(endpoint string, b []byte, out any) error {
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}
