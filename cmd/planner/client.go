package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wricardo/mars-rovers/game/service"
)

// Client submits missions to a running mars-rovers server.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateRun runs raw mission lines on the server.
func (c *Client) CreateRun(ctx context.Context, name string, lines []string) (*service.RunResult, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"name":     name,
		"lines":    lines,
		"crossing": "abort",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/runs", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("create run failed: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("create run failed with status %d", resp.StatusCode)
	}

	var result service.RunResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &result, nil
}
