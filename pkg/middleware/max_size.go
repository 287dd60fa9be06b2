package middleware

import (
	"net/http"

	apperrors "jsonbin/pkg/errors"
	httputil "jsonbin/pkg/http"
)

// MaxRequestSize rejects bodies whose declared length exceeds limit and caps
// the reader for chunked bodies; handlers see *http.MaxBytesError on overflow.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				_ = httputil.WriteError(w, apperrors.PayloadTooLarge(limit))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
