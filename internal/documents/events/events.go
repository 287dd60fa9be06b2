package events

import (
	"context"
	"encoding/json"

	"jsonbin/pkg/kafka"
	"jsonbin/pkg/logger"
)

type EventType string

const (
	DocumentCreated       EventType = "document.created"
	DocumentReplaced      EventType = "document.replaced"
	DocumentArrayUpserted EventType = "document.array_upserted"
	DocumentDeleted       EventType = "document.deleted"
)

// Event describes a change to one document. Data holds the canonical
// serialization of the document after the change and is nil for deletions.
type Event struct {
	Type          EventType
	DocumentID    string
	Data          []byte
	CorrelationID string
}

type payload struct {
	ID   string          `json:"id"`
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Publisher delivers change events. Delivery is best effort: failures are
// logged by the implementation and never returned to the caller.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) {}

// MessageProducer is the subset of *kafka.Producer used for events.
type MessageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer MessageProducer
	source   string
	log      *logger.Logger
}

func NewKafkaPublisher(producer MessageProducer, source string, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) {
	data := json.RawMessage(event.Data)
	if len(data) == 0 {
		data = json.RawMessage("null")
	}

	msg, err := kafka.NewMessage().
		WithKey(event.DocumentID).
		WithValue(payload{ID: event.DocumentID, Type: event.Type, Data: data}).
		WithEventType(string(event.Type)).
		WithSource(p.source).
		WithCorrelationID(event.CorrelationID).
		Build()
	if err != nil {
		p.log.Error("Failed to build change event",
			"document_id", event.DocumentID,
			"event_type", event.Type,
			"error", err,
		)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish change event",
			"document_id", event.DocumentID,
			"event_type", event.Type,
			"event_id", msg.GetEventID(),
			"error", err,
		)
	}
}
