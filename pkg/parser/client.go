// Package parser provides a client for the external title-parsing service
// under evaluation. The parsed result is owned entirely by that service:
// this client hands it back as raw JSON and never inspects its shape.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the parser operations the harness depends on.
type Client interface {
	// Parse submits a title and returns the parser's structured result
	// verbatim.
	Parse(ctx context.Context, title string) (json.RawMessage, error)
}

// Func adapts a plain function to the Client interface.
type Func func(ctx context.Context, title string) (json.RawMessage, error)

// Parse implements Client.
func (f Func) Parse(ctx context.Context, title string) (json.RawMessage, error) {
	return f(ctx, title)
}

// StatusError reports a non-200 response from the parser service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("parser: status %d: %s", e.Code, e.Body)
}

// Option configures the parser client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the parser service at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Parse(ctx context.Context, title string) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return nil, eris.Wrap(err, "parser: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "parser: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "parser: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "parser: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if !json.Valid(body) {
		return nil, eris.Errorf("parser: response is not valid JSON")
	}
	return json.RawMessage(body), nil
}
