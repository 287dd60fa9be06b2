package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"jsonbin/pkg/metrics"
)

// Metrics records request counts and latency per route template.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			route := routeTemplate(r.URL.Path)
			metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		})
	}
}

// routeTemplate keeps label cardinality bounded by collapsing document ids.
func routeTemplate(path string) string {
	switch path {
	case "/", "/health", "/ready", "/metrics":
		return path
	}
	trimmed := strings.Trim(path, "/")
	if trimmed != "" && !strings.Contains(trimmed, "/") {
		return "/:id"
	}
	return "other"
}
