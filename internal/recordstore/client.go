package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the record-store HTTP API. Every request runs under the
// configured client timeout in addition to the caller's context.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a record-store client. A zero timeout falls back to ten
// seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch runs a query against the named table and returns the raw records.
func (c *Client) Fetch(ctx context.Context, table string, q Query) ([]json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/tables/%s/query", c.baseURL, table), q)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetByID fetches a single record. A missing record returns ErrNotFound.
func (c *Client) GetByID(ctx context.Context, table, id string) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/tables/%s/records/%s", c.baseURL, table, id), nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("table %s record %s: %w", table, id, ErrNotFound)
	}
	return resp.Data[0], nil
}

// Create inserts a record into the named table.
func (c *Client) Create(ctx context.Context, table string, record any) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/tables/%s/records", c.baseURL, table), record)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0], nil
}

// Update overwrites the record with the given id.
func (c *Client) Update(ctx context.Context, table, id string, record any) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/tables/%s/records/%s", c.baseURL, table, id), record)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0], nil
}

// Delete removes the record with the given id. Deleting an absent record
// returns ErrNotFound.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/tables/%s/records/%s", c.baseURL, table, id), nil)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, body any) (*response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, httpResp.StatusCode)
	}

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.Message)
	}
	return &resp, nil
}
