package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "jsonbin-client"

type HttpClient struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

type Option func(*HttpClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HttpClient) { c.httpClient = hc }
}

// WithHeader adds a header to every request, e.g. an API gateway key.
func WithHeader(key, value string) Option {
	return func(c *HttpClient) { c.headers[key] = value }
}

func NewHttpClient(baseURL string, opts ...Option) *HttpClient {
	c := &HttpClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		headers:    map[string]string{"User-Agent": userAgent},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (c *HttpClient) GET(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, headers)
}

func (c *HttpClient) POST(ctx context.Context, path string, rawBody []byte, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, rawBody, headers)
}

func (c *HttpClient) PUT(ctx context.Context, path string, rawBody []byte, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, rawBody, headers)
}

func (c *HttpClient) PATCH(ctx context.Context, path string, rawBody []byte, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, rawBody, headers)
}

func (c *HttpClient) DELETE(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, headers)
}

func (c *HttpClient) do(ctx context.Context, method, path string, rawBody []byte, headers map[string]string) (*Response, error) {
	var reqBody io.Reader
	if rawBody != nil {
		reqBody = bytes.NewReader(rawBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s %s: build request: %w", method, path, err)
	}

	if rawBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	return &Response{Response: resp, Body: respBody}, nil
}

// WaitReady polls /ready until the service reports its store reachable.
func (c *HttpClient) WaitReady(ctx context.Context, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := c.GET(ctx, "/ready", nil)
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("service not ready within %v", maxWait)
		}
	}
}

func GetErrorMessage(resp *Response) string {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil || errResp.Error == "" {
		return http.StatusText(resp.StatusCode)
	}
	return errResp.Error
}
