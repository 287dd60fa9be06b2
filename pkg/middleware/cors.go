package middleware

import (
	"net/http"
	"regexp"
	"slices"

	"jsonbin/pkg/config"
	"jsonbin/pkg/logger"

	"github.com/rs/cors"
)

// CORS allows exact origins and /regexp/ entries from allowed.
func CORS(allowed []string, log *logger.Logger) func(http.Handler) http.Handler {
	var exact []string
	var patterns []*regexp.Regexp
	for _, origin := range allowed {
		if pattern, ok := config.OriginPattern(origin); ok {
			re, err := regexp.Compile(pattern)
			if err != nil {
				log.Warn("Skipping invalid CORS origin pattern", "pattern", origin, "error", err)
				continue
			}
			patterns = append(patterns, re)
			continue
		}
		exact = append(exact, origin)
	}

	c := cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			if slices.Contains(exact, origin) {
				return true
			}
			for _, re := range patterns {
				if re.MatchString(origin) {
					return true
				}
			}
			return false
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", "If-None-Match", "Idempotency-Key", RequestIDHeader},
		ExposedHeaders: []string{"ETag", RequestIDHeader},
	})

	return c.Handler
}
