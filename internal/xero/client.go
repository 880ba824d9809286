// Package xero is a thin client for the Xero identity and accounting APIs,
// covering the handful of calls the consolidation pipeline needs.
package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://api.xero.com"

	identityPath   = "/connections"
	accountingPath = "/api.xro/2.0"

	tenantHeader = "Xero-Tenant-Id"
)

// BadRequestError is returned when Xero rejects a request as invalid
// (HTTP 400). Callers decide per call site whether this is fatal or a
// recoverable empty result.
type BadRequestError struct {
	Endpoint string
	Body     string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("xero: bad request on %s: %s", e.Endpoint, e.Body)
}

// APIError is any other non-2xx response.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("xero: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client calls the Xero APIs with OAuth2-authenticated requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a client from an OAuth2 token source. The source is
// expected to refresh and persist tokens on its own.
func NewClient(ctx context.Context, ts oauth2.TokenSource) *Client {
	return &Client{
		httpClient: oauth2.NewClient(ctx, ts),
		baseURL:    defaultBaseURL,
	}
}

// NewClientWithHTTP builds a client over an existing *http.Client and base
// URL. Used by tests against httptest servers.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// get performs a GET against path with the given query, decoding the JSON
// response into out. tenantID is sent as the Xero-Tenant-Id header when
// non-empty.
func (c *Client) get(ctx context.Context, tenantID, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("xero: building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if tenantID != "" {
		req.Header.Set(tenantHeader, tenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("xero: calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("xero: reading response from %s: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return &BadRequestError{Endpoint: path, Body: truncate(body, 2000)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{Endpoint: path, StatusCode: resp.StatusCode, Body: truncate(body, 2000)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("xero: decoding response from %s: %w", path, err)
	}
	return nil
}

func truncate(b []byte, max int) string {
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
