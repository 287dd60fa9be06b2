package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var ErrNotModified = errors.New("document not modified")

// StatusError is returned for any non-2xx answer from the documents API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("documents api: %d: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

type DocumentClient struct {
	httpClient *HttpClient
}

func NewDocumentClient(baseURL string, opts ...Option) *DocumentClient {
	return &DocumentClient{
		httpClient: NewHttpClient(baseURL, opts...),
	}
}

func (c *DocumentClient) WaitReady(ctx context.Context, maxWait time.Duration) error {
	return c.httpClient.WaitReady(ctx, maxWait)
}

// Document is a read result. Data holds the canonical serialization, so two
// reads of equal documents compare equal byte for byte.
type Document struct {
	Data json.RawMessage
	ETag string
}

type ArrayUpsert struct {
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

func (c *DocumentClient) Create(ctx context.Context, body []byte) (string, error) {
	resp, err := c.httpClient.POST(ctx, "/", body, nil)
	if err != nil {
		return "", err
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := resp.DecodeJSON(&out); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	return out.ID, nil
}

// Get fetches a document. When etag is non-empty and still current,
// ErrNotModified is returned.
func (c *DocumentClient) Get(ctx context.Context, id, etag string) (*Document, error) {
	var headers map[string]string
	if etag != "" {
		headers = map[string]string{"If-None-Match": etag}
	}

	resp, err := c.httpClient.GET(ctx, "/"+url.PathEscape(id), headers)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotModified {
		return nil, ErrNotModified
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("decode get response: %w", err)
	}
	return &Document{Data: out.Data, ETag: resp.Header.Get("ETag")}, nil
}

func (c *DocumentClient) Replace(ctx context.Context, id string, body []byte) error {
	resp, err := c.httpClient.PUT(ctx, "/"+url.PathEscape(id), body, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

func (c *DocumentClient) ArrayUpsert(ctx context.Context, id string, upsert ArrayUpsert) error {
	body, err := json.Marshal(struct {
		Action string `json:"action"`
		ArrayUpsert
	}{Action: "ARRAY_UPSERT", ArrayUpsert: upsert})
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}

	resp, err := c.httpClient.PATCH(ctx, "/"+url.PathEscape(id), body, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

func (c *DocumentClient) Delete(ctx context.Context, id string) error {
	resp, err := c.httpClient.DELETE(ctx, "/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

func checkStatus(resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: GetErrorMessage(resp)}
}
