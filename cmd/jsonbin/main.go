package main

import (
	"jsonbin/internal/documents/events"
	"jsonbin/internal/documents/handler"
	"jsonbin/internal/documents/repository"
	"jsonbin/internal/documents/service"
	"jsonbin/internal/documents/validator"
	"jsonbin/pkg/app"
	"jsonbin/pkg/config"
	"jsonbin/pkg/kafka"
	kafka_middleware "jsonbin/pkg/kafka/middleware"
)

const ServiceName = "jsonbin"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting jsonbin service")
	serverApp := app.NewApplication(cfg)

	publisher := initPublisher(cfg, serverApp)
	repo := repository.NewMongoDocumentRepository(cfg)
	documentService := initServices(cfg, repo, publisher)

	serverApp.SetApp(
		handler.NewDocumentHandler(documentService, cfg.Log),
		handler.NewHealthHandler(repo, cfg.Log),
	)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if cfg.Kafka == nil {
		cfg.Log.Info("Change events disabled")
		return events.NewNoopPublisher()
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())
	serverApp.OnShutdown("kafka producer", producer)

	cfg.Log.Info("Change events enabled", "topic", cfg.Kafka.Topic)
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}

func initServices(cfg *config.Config, repo repository.DocumentRepository, publisher events.Publisher) service.DocumentService {
	patchValidator := validator.NewPatchValidator(cfg.Log)
	documentService := service.NewDocumentService(
		repo,
		patchValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Document service initialized",
		"database", cfg.MongoDatabaseName,
		"collection", cfg.MongoCollection,
	)
	return documentService
}
