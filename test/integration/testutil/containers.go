//go:build integration

package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	redismod "github.com/testcontainers/testcontainers-go/modules/redis"
)

const mongoImage = "mongo:7"

// StartMongo launches a MongoDB container and returns its connection string
// with a function that terminates it.
func StartMongo(ctx context.Context) (string, func(), error) {
	container, err := mongodb.RunContainer(ctx, testcontainers.WithImage(mongoImage))
	if err != nil {
		return "", nil, fmt.Errorf("mongo up: %w", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return "", nil, fmt.Errorf("mongo uri: %w", err)
	}

	return uri, func() { _ = container.Terminate(context.Background()) }, nil
}

// StartRedis launches a Redis container for the duration of t and returns
// its address.
func StartRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	r, err := redismod.RunContainer(ctx)
	if err != nil {
		t.Fatalf("redis up: %v", err)
	}
	t.Cleanup(func() { _ = r.Terminate(context.Background()) })

	host, err := r.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := r.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port())
}
