package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the ingestq JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an API client for baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("server url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}, nil
}

// Batch is one batch of an ingestion status response.
type Batch struct {
	BatchID string  `json:"batch_id"`
	IDs     []int64 `json:"ids"`
	Status  string  `json:"status"`
}

// Status is the ingestion status response.
type Status struct {
	IngestionID string  `json:"ingestion_id"`
	Status      string  `json:"status"`
	Batches     []Batch `json:"batches"`
}

// APIError is a non-2xx API response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Submit posts ids with a priority and returns the ingestion id.
func (c *Client) Submit(ctx context.Context, ids []int64, priority string) (string, error) {
	body, err := json.Marshal(map[string]any{"ids": ids, "priority": priority})
	if err != nil {
		return "", err
	}
	var out struct {
		IngestionID string `json:"ingestion_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/ingest", body, &out); err != nil {
		return "", err
	}
	return out.IngestionID, nil
}

// Status fetches the status of one ingestion.
func (c *Client) Status(ctx context.Context, ingestionID string) (Status, error) {
	var out Status
	err := c.do(ctx, http.MethodGet, "/status/"+url.PathEscape(ingestionID), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr struct {
			Error string `json:"error"`
		}
		message := strings.TrimSpace(string(payload))
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
