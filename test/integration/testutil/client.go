//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

// Client sends raw JSON bodies so tests control key order and formatting.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) UnmarshalJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (c *Client) GET(t *testing.T, path string) *Response {
	t.Helper()
	return c.Request(t, http.MethodGet, path, "", nil)
}

func (c *Client) POST(t *testing.T, path, body string) *Response {
	t.Helper()
	return c.Request(t, http.MethodPost, path, body, nil)
}

func (c *Client) PUT(t *testing.T, path, body string) *Response {
	t.Helper()
	return c.Request(t, http.MethodPut, path, body, nil)
}

func (c *Client) PATCH(t *testing.T, path, body string) *Response {
	t.Helper()
	return c.Request(t, http.MethodPatch, path, body, nil)
}

func (c *Client) DELETE(t *testing.T, path string) *Response {
	t.Helper()
	return c.Request(t, http.MethodDelete, path, "", nil)
}

// Request sets Content-Type to application/json whenever body is non-empty,
// unless headers override it.
func (c *Client) Request(t *testing.T, method, path, body string, headers map[string]string) *Response {
	t.Helper()

	var reqBody io.Reader
	if body != "" {
		reqBody = bytes.NewBufferString(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	return &Response{
		Response: resp,
		Body:     respBody,
	}
}

// CreateDocument posts body and returns the new id.
func (c *Client) CreateDocument(t *testing.T, body string) string {
	t.Helper()
	resp := c.POST(t, "/", body)
	AssertStatusCode(t, resp, http.StatusCreated)

	var created struct {
		ID string `json:"id"`
	}
	if err := resp.UnmarshalJSON(&created); err != nil {
		t.Fatalf("failed to unmarshal create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected id in create response")
	}
	return created.ID
}

// DocumentData returns the raw "data" member of a read response.
func DocumentData(t *testing.T, resp *Response) string {
	t.Helper()
	var out struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.UnmarshalJSON(&out); err != nil {
		t.Fatalf("failed to unmarshal read response: %v", err)
	}
	return string(out.Data)
}

func AssertStatusCode(t *testing.T, resp *Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

func AssertContains(t *testing.T, resp *Response, substr string) {
	t.Helper()
	if body := string(resp.Body); !strings.Contains(body, substr) {
		t.Fatalf("response body does not contain %q. Body: %s", substr, body)
	}
}

func GetErrorMessage(t *testing.T, resp *Response) string {
	t.Helper()
	var errResp struct {
		Error string `json:"error"`
	}
	if err := resp.UnmarshalJSON(&errResp); err != nil {
		t.Fatalf("failed to unmarshal error: %v", err)
	}
	return errResp.Error
}
