package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *DocumentClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewDocumentClient(srv.URL+"/", WithHeader("X-Api-Key", "k"))
}

func TestDocumentClient_Create(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"a":1}`, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	})

	id, err := c.Create(context.Background(), []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestDocumentClient_Get(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"e1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"e1"`)
		_, _ = w.Write([]byte(`{"data":{"a":1,"b":2}}`))
	})

	doc, err := c.Get(context.Background(), "doc 1", "")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, string(doc.Data))
	assert.Equal(t, `"e1"`, doc.ETag)

	_, err = c.Get(context.Background(), "doc 1", doc.ETag)
	assert.ErrorIs(t, err, ErrNotModified)
}

func TestDocumentClient_ArrayUpsertBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/d1", r.URL.Path)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `"ARRAY_UPSERT"`, string(body["action"]))
		assert.JSONEq(t, `"items"`, string(body["path"]))
		assert.JSONEq(t, `{"id":"x"}`, string(body["data"]))

		_, _ = w.Write([]byte(`{"success":"Item updated"}`))
	})

	err := c.ArrayUpsert(context.Background(), "d1", ArrayUpsert{Path: "items", Data: json.RawMessage(`{"id":"x"}`)})
	assert.NoError(t, err)
}

func TestDocumentClient_StatusErrors(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"No item with that ID exists"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>proxy</html>`))
		}
	})

	err := c.Replace(context.Background(), "missing", []byte(`{}`))
	assert.True(t, IsNotFound(err))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "No item with that ID exists", se.Message)

	err = c.Delete(context.Background(), "x")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "Bad Gateway", se.Message)
	assert.False(t, IsNotFound(err))
}

func TestWaitReady(t *testing.T) {
	var calls atomic.Int32
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ready", r.URL.Path)
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.WaitReady(context.Background(), 5*time.Second))
	assert.Equal(t, int32(2), calls.Load())
}

func TestWaitReady_Timeout(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.WaitReady(context.Background(), 300*time.Millisecond)
	assert.Error(t, err)
}
