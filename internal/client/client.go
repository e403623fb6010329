// Package client is a thin HTTP client for the lattice admin API, used by
// the CLI to tune and inspect a running server.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultServerURL = "http://127.0.0.1:37111"
	httpTimeout      = 5 * time.Second
)

// Client talks to the lattice admin server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates an admin API client.
// Respects LATTICE_URL env var, falls back to http://127.0.0.1:37111.
func New() *Client {
	url := os.Getenv("LATTICE_URL")
	if url == "" {
		url = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: url,
	}
}

// Params fetches the current parameter snapshot.
func (c *Client) Params() (map[string]any, error) {
	data, err := c.get("/api/params")
	if err != nil {
		return nil, err
	}
	var snap map[string]any
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return snap, nil
}

// Apply pushes parameter updates; returns how many were accepted.
func (c *Client) Apply(updates map[string]any) (int, error) {
	body, err := json.Marshal(updates)
	if err != nil {
		return 0, fmt.Errorf("encode updates: %w", err)
	}
	data, err := c.do("PUT", "/api/params", body)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Applied []json.RawMessage `json:"applied"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return len(resp.Applied), nil
}

// Reload fires the server's reload trigger.
func (c *Client) Reload() error {
	_, err := c.do("POST", "/api/reload", nil)
	return err
}

// Dump fires the server's snapshot-dump trigger.
func (c *Client) Dump() error {
	_, err := c.do("POST", "/api/dump", nil)
	return err
}

func (c *Client) get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return readResponse("GET", path, resp)
}

func (c *Client) do(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.serverURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return readResponse(method, path, resp)
}

func readResponse(method, path string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return data, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, data)
	}
	return data, nil
}
