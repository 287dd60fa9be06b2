//go:build integration

package testutil

import (
	"context"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"jsonbin/internal/documents/events"
	"jsonbin/internal/documents/handler"
	"jsonbin/internal/documents/repository"
	"jsonbin/internal/documents/service"
	"jsonbin/internal/documents/validator"
	mongoMigration "jsonbin/internal/migrations/mongo"
	"jsonbin/pkg/app"
	"jsonbin/pkg/client"
	"jsonbin/pkg/config"
	"jsonbin/pkg/logger"
)

// MongoURI is set by TestMain, either from TEST_MONGO_URI or a container.
var MongoURI string

// SetupMongo resolves MongoURI and returns a teardown for TestMain.
func SetupMongo() (func(), error) {
	if uri := os.Getenv("TEST_MONGO_URI"); uri != "" {
		MongoURI = uri
		return func() {}, nil
	}

	uri, terminate, err := StartMongo(context.Background())
	if err != nil {
		return nil, err
	}
	MongoURI = uri
	return terminate, nil
}

// RecordingPublisher keeps every change event for assertions.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type Option func(*config.Config)

func WithRedis(addr string) Option {
	return func(cfg *config.Config) { cfg.RedisAddr = addr }
}

func WithRateLimit(requests int) Option {
	return func(cfg *config.Config) { cfg.RateLimitRequests = requests }
}

// TestEnv is a fully wired server on an isolated database.
type TestEnv struct {
	Config    *config.Config
	Server    *httptest.Server
	Client    *Client
	Documents *client.DocumentClient
	Mongo     *MongoHelper
	Events    *RecordingPublisher
}

func NewTestEnv(t *testing.T, opts ...Option) *TestEnv {
	t.Helper()

	cfg := &config.Config{
		MongoURI:           MongoURI,
		MongoDatabaseName:  "jsonbin_test_" + uuid.NewString()[:8],
		MongoCollection:    DocumentsCollection,
		MongoConnTimeout:   ConnectionTimeout,
		Port:               "0",
		CORSAllowedOrigins: []string{"/localhost:/"},
		RateLimitRequests:  1000,
		RateLimitWindow:    time.Minute,
		RequestTimeout:     5 * time.Second,
		IdempotencyTTL:     time.Minute,
		MaxRequestSize:     64 * 1024,
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		IdleTimeout:        5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		Log:                logger.Discard(),
		Client:             client.NewClient(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	cfg.SetMongo()
	cfg.SetRedis()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(context.Background(), db, cfg.MongoCollection, cfg.Log); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	publisher := &RecordingPublisher{}
	repo := repository.NewMongoDocumentRepository(cfg)
	documentService := service.NewDocumentService(repo, validator.NewPatchValidator(cfg.Log), publisher, cfg)

	application := app.NewApplication(cfg)
	application.SetApp(
		handler.NewDocumentHandler(documentService, cfg.Log),
		handler.NewHealthHandler(repo, cfg.Log),
	)
	server := httptest.NewServer(application.Handler())

	env := &TestEnv{
		Config:    cfg,
		Server:    server,
		Client:    NewClient(server.URL),
		Documents: client.NewDocumentClient(server.URL),
		Mongo:     NewMongoHelper(t, MongoURI, cfg.MongoDatabaseName),
		Events:    publisher,
	}

	t.Cleanup(func() {
		server.Close()
		env.Mongo.DropDatabase(t)
		env.Mongo.Close(t)
		application.Shutdown()
	})

	if err := env.Documents.WaitReady(context.Background(), 10*time.Second); err != nil {
		t.Fatalf("server not ready: %v", err)
	}
	return env
}
