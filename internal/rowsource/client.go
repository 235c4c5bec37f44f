// Package rowsource implements the client side of the remote row backend:
// given a subject it returns the full list of image rows pending triage.
// There is no caching, every call replaces the previous snapshot wholesale.
package rowsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/leca/image-triage/internal/model"
)

// Client fetches image rows from the row backend.
type Client struct {
	// BaseURL is the backend root, e.g. "http://localhost:8786".
	BaseURL string
	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client
}

// NewClient returns a Client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/")}
}

type rowsResponse struct {
	Rows []model.ImageRow `json:"rows"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// FetchRows returns every row filed under subject.
func (c *Client) FetchRows(ctx context.Context, subject string) ([]model.ImageRow, error) {
	endpoint := fmt.Sprintf("%s/rows?subject=%s", c.BaseURL, url.QueryEscape(subject))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building rows request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rows for subject %q: %w", subject, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rows response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Prefer the backend-provided message when the body carries one.
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			return nil, fmt.Errorf("row backend: %s", e.Message)
		}
		return nil, fmt.Errorf("row backend: unexpected status %d", resp.StatusCode)
	}

	var out rowsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding rows response: %w", err)
	}
	return out.Rows, nil
}
