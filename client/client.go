// Package client is a Go SDK for the sandforce REST API. It speaks the
// same wire format as the Salesforce sObject endpoints, so code written
// against it exercises the sandbox exactly the way an integration would.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultAPIVersion is the REST API version the client targets.
const DefaultAPIVersion = "v59.0"

// Client talks to a sandforce server. The zero value is not usable; create
// one with New.
type Client struct {
	baseURL    string
	token      string
	apiVersion string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the Bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIVersion overrides the REST API version segment of request paths.
func WithAPIVersion(version string) Option {
	return func(c *Client) { c.apiVersion = version }
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiVersion: DefaultAPIVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// basePath returns the versioned REST prefix, e.g. "/services/data/v59.0".
func (c *Client) basePath() string {
	return "/services/data/" + c.apiVersion
}

// do issues a request against path (relative to the versioned base path),
// encodes body as JSON when non-nil, and decodes a 2xx response into out
// when out is non-nil. Non-2xx responses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + c.basePath() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr.Errors); err != nil || len(apiErr.Errors) == 0 {
		apiErr.Errors = []ErrorDetail{{
			Message:   fmt.Sprintf("unexpected response status %d", resp.StatusCode),
			ErrorCode: "UNKNOWN_EXCEPTION",
		}}
	}
	return apiErr
}
