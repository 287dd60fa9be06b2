package config

import "time"

const (
	DefaultMongoURI             = "mongodb://localhost:27017"
	DefaultMongoDatabaseName    = "jsonbin"
	DefaultMongoCollection      = "documents"
	DefaultMongoConnTimeout     = 10 * time.Second
	DefaultMongoUseTransactions = false

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	// Regular expressions are written between slashes.
	DefaultCORSAllowedOrigins = "/localhost:/," +
		"https://discomundus.web.app," +
		"https://scatter-bar.web.app," +
		"https://sydsubmem.web.app," +
		"https://talkonanon.web.app"

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultRedisDB = 0
)
