// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}

// JSONResponse is the decoded body plus status of a JSON round-trip.
type JSONResponse struct {
	StatusCode int
	Body       map[string]interface{}
	Raw        []byte
}

// IsSuccess reports whether the response status is 2xx.
func (r *JSONResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Message returns the server-provided message or error string, if any.
func (r *JSONResponse) Message() string {
	if r.Body == nil {
		return ""
	}
	if msg, ok := r.Body["message"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := r.Body["error"].(string); ok {
		return msg
	}
	return ""
}

// DoJSON issues a single JSON request and decodes the JSON body. A non-2xx
// status is not an error here; callers decide what failure means.
func (c *Client) DoJSON(ctx context.Context, method, url string, payload interface{}, headers map[string]string) (*JSONResponse, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	out := &JSONResponse{StatusCode: resp.StatusCode, Raw: raw}
	if len(raw) > 0 {
		// Best effort decode; non-JSON bodies leave Body nil.
		_ = json.Unmarshal(raw, &out.Body)
	}
	return out, nil
}
