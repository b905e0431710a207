// Package gamma talks to the external prediction-market source. The feed is
// loosely typed, so the client hands raw JSON records to the normalizer
// instead of modeling the upstream schema.
package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market source error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, apiKey string) *Client {
	if host == "" {
		host = "https://gamma-api.polymarket.com/markets"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// ListQuery mirrors the upstream query surface: active/closed flags, paging,
// and an optional direct id lookup.
type ListQuery struct {
	Active *bool
	Closed *bool
	Limit  int
	Offset int
	ID     string
}

// ListMarkets fetches one page of raw market records. Non-2xx statuses and
// non-array bodies both fail the call; callers never see partial data.
func (c *Client) ListMarkets(ctx context.Context, q ListQuery) ([]json.RawMessage, error) {
	query := url.Values{}
	if q.Active != nil {
		query.Set("active", strconv.FormatBool(*q.Active))
	}
	if q.Closed != nil {
		query.Set("closed", strconv.FormatBool(*q.Closed))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		query.Set("offset", strconv.Itoa(q.Offset))
	}
	if strings.TrimSpace(q.ID) != "" {
		query.Set("id", strings.TrimSpace(q.ID))
	}

	fullURL := c.host
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("market source response was not an array: %w", err)
	}
	return records, nil
}
