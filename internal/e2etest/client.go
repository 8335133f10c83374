package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks JSON to the test server.
type Client struct {
	client *http.Client
	url    string
}

// NewClient creates a client for the server at url.
func NewClient(url string) *Client {
	return &Client{
		client: &http.Client{Timeout: 5 * time.Second}, //nolint:mnd // generous for CI
		url:    url,
	}
}

// StatusError is returned when the server responds with an unexpected status code.
type StatusError struct {
	Code int
	// Message is the "error" field of the response body, if any.
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.Code, e.Message)
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	for {
		resp, err := c.Get(ctx, urlPath)
		if err == nil {
			code := resp.StatusCode
			if err = resp.Body.Close(); err != nil {
				return fmt.Errorf("close response body: %w", err)
			}
			if code == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the raw response. The caller closes the body.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+urlPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// GetJSON decodes the response of GET urlPath into out.
func (c *Client) GetJSON(ctx context.Context, urlPath string, out any) error {
	return c.do(ctx, http.MethodGet, urlPath, nil, out)
}

// PostJSON sends in as the JSON body and decodes the response into out. Either may be nil.
func (c *Client) PostJSON(ctx context.Context, urlPath string, in, out any) error {
	return c.do(ctx, http.MethodPost, urlPath, in, out)
}

// PutJSON sends in as the JSON body and decodes the response into out. Either may be nil.
func (c *Client) PutJSON(ctx context.Context, urlPath string, in, out any) error {
	return c.do(ctx, http.MethodPut, urlPath, in, out)
}

// do performs a JSON request. Status codes other than 2xx are returned as *StatusError.
func (c *Client) do(ctx context.Context, method, urlPath string, in, out any) error {
	var body io.Reader
	if in != nil {
		// Raw strings are sent verbatim so that tests can send malformed documents.
		if s, ok := in.(string); ok {
			body = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(in)
			if err != nil {
				return fmt.Errorf("marshal request: %w", err)
			}
			body = bytes.NewReader(b)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &StatusError{Code: resp.StatusCode, Message: errBody.Error}
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
