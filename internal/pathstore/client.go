// Package pathstore keeps finished extractions in pathstore, an HTTP
// key/value service whose keys are slash-separated paths. Each job owns the
// subtree extractions/{job_id}.
package pathstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the pathstore /kv API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NodeRequest is the body for PUT /kv/{key}.
type NodeRequest struct {
	Value      any     `json:"value"`
	MergeMode  string  `json:"merge_mode,omitempty"`
	MemoryType string  `json:"memory_type,omitempty"`
	Salience   float64 `json:"salience,omitempty"`
	Source     string  `json:"source,omitempty"`
	ExpiresAt  string  `json:"expires_at,omitempty"`
}

// Node is a stored value as returned by GET /kv/{key} and prefix scans.
type Node struct {
	Key   string          `json:"key_path"`
	Value json.RawMessage `json:"value"`
}

// PutNode writes one node.
func (c *Client) PutNode(ctx context.Context, key string, req NodeRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal node %s: %w", key, err)
	}
	resp, err := c.do(ctx, http.MethodPut, key, nil, body)
	if err != nil {
		return fmt.Errorf("put node %s: %w", key, err)
	}
	defer resp.Body.Close()
	return expectStatus(resp, "put node "+key, http.StatusOK, http.StatusCreated)
}

// GetNode reads one node. A missing key yields nil without error.
func (c *Client) GetNode(ctx context.Context, key string) (*Node, error) {
	resp, err := c.do(ctx, http.MethodGet, key, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := expectStatus(resp, "get node "+key, http.StatusOK); err != nil {
		return nil, err
	}

	var node Node
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return nil, fmt.Errorf("decode node %s: %w", key, err)
	}
	return &node, nil
}

// DeleteNode removes key, and with recursive set everything below it.
func (c *Client) DeleteNode(ctx context.Context, key string, recursive bool) error {
	var q url.Values
	if recursive {
		q = url.Values{"children": {"true"}}
	}
	resp, err := c.do(ctx, http.MethodDelete, key, q, nil)
	if err != nil {
		return fmt.Errorf("delete node %s: %w", key, err)
	}
	defer resp.Body.Close()
	return expectStatus(resp, "delete node "+key, http.StatusOK, http.StatusNoContent)
}

// ListChildren scans every node below key. limit <= 0 means no limit.
func (c *Client) ListChildren(ctx context.Context, key string, limit int) ([]Node, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	resp, err := c.do(ctx, http.MethodGet, key+"/*", q, nil)
	if err != nil {
		return nil, fmt.Errorf("list children %s: %w", key, err)
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, "list children "+key, http.StatusOK); err != nil {
		return nil, err
	}

	var result struct {
		Nodes []Node `json:"nodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode children %s: %w", key, err)
	}
	return result.Nodes, nil
}

// Close drops idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, method, key string, query url.Values, body []byte) (*http.Response, error) {
	u := c.baseURL + "/kv/" + key
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.httpClient.Do(req)
}

// expectStatus returns an error carrying the start of the body unless the
// response has one of the wanted codes.
func expectStatus(resp *http.Response, op string, want ...int) error {
	for _, code := range want {
		if resp.StatusCode == code {
			return nil
		}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}
