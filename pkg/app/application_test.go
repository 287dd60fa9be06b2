package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsonbin/pkg/client"
	"jsonbin/pkg/config"
	"jsonbin/pkg/logger"
)

type stubDocuments struct{}

func (stubDocuments) RegisterRoutes(router *httprouter.Router) {
	router.POST("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	})
	router.GET("/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		_, _ = w.Write([]byte(ps.ByName("id")))
	})
}

type stubHealth struct{}

func (stubHealth) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		CORSAllowedOrigins: []string{"/localhost:/"},
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
		RequestTimeout:     time.Second,
		IdempotencyTTL:     time.Minute,
		MaxRequestSize:     64,
		ReadTimeout:        time.Second,
		WriteTimeout:       time.Second,
		IdleTimeout:        time.Second,
		ShutdownTimeout:    time.Second,
		Log:                logger.Discard(),
		Client:             client.NewClient(),
	}
}

func newTestApp(t *testing.T) *Application {
	t.Helper()
	a := NewApplication(testConfig())
	a.SetApp(stubDocuments{}, stubHealth{})
	t.Cleanup(a.Shutdown)
	return a
}

func serve(a *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func TestOperationalRoutes(t *testing.T) {
	a := newTestApp(t)

	assert.Equal(t, http.StatusOK, serve(a, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(a, httptest.NewRequest(http.MethodGet, "/ready", nil)).Code)

	serve(a, httptest.NewRequest(http.MethodGet, "/doc-1", nil))
	rec := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jsonbin_http_requests_total")
}

func TestDocumentRoutesUseMiddleware(t *testing.T) {
	a := newTestApp(t)

	t.Run("content type enforced", func(t *testing.T) {
		rec := serve(a, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("create passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rec := serve(a, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 128)))
		req.Header.Set("Content-Type", "application/json")
		req.ContentLength = 128
		rec := serve(a, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("id route", func(t *testing.T) {
		rec := serve(a, httptest.NewRequest(http.MethodGet, "/doc-1", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "doc-1", rec.Body.String())
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/doc-1", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		rec := serve(a, req)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestIdempotentCreateReplays(t *testing.T) {
	a := newTestApp(t)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "k-1")
		return serve(a, req)
	}

	first := send()
	second := send()
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}
