// Package api is the REST client for the storefront backend. Every request
// is parameterized by the resolved session identity: authenticated requests
// carry a bearer header, guest requests carry the guest id as a query
// parameter.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"storefront/domain"
)

// DefaultTimeout bounds every request; the backend gets no retries.
const DefaultTimeout = 10 * time.Second

// IdentityFunc resolves the identity a request runs under. Wired to
// session.Store.Resolve so the guest/bearer branch lives in one place.
type IdentityFunc func() domain.SessionIdentity

// Client talks to the backend REST surface.
type Client struct {
	baseURL  string
	http     *http.Client
	identity IdentityFunc

	// mutMu serializes mutating cart calls within this client so the
	// refetch-after-mutation reconciliation point is deterministic.
	mutMu sync.Mutex

	// cached cart view; invalidated after every mutation. gen guards
	// against an in-flight fetch overwriting newer state.
	cacheMu  sync.Mutex
	cached   []domain.CartLineItem
	hasCache bool
	gen      uint64
}

// NewClient constructs a Client. baseURL points at the API root, e.g.
// "http://localhost:8080/api". A zero timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, identity IdentityFunc) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		identity: identity,
	}
}

// newRequest builds a request with the identity attached: bearer header for
// authenticated sessions, guestId query parameter for guests.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	id := c.identity()
	if query == nil {
		query = url.Values{}
	}
	if id.Kind == domain.IdentityGuest && id.GuestID != "" {
		query.Set("guestId", id.GuestID)
	}
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id.Kind == domain.IdentityAuthenticated {
		req.Header.Set("Authorization", "Bearer "+id.AccessToken)
	}
	return req, nil
}

// do executes the request and decodes the response body into out (skipped
// when out is nil). Non-2xx statuses become a domain.APIError carrying the
// server-provided message when one was given; an expired verification code
// (410) becomes a domain.OTPExpiredError.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusGone {
			return domain.NewOTPExpiredError()
		}
		return domain.NewAPIError(resp.StatusCode, serverMessage(b))
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = b
		return nil
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}

// serverMessage pulls a human-readable message out of an error body,
// tolerating the common wrapper keys.
func serverMessage(b []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
