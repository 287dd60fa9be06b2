package events

import (
	"context"
	"errors"
	"testing"

	"jsonbin/pkg/kafka"
	"jsonbin/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProducer struct {
	messages []kafka.Message
	err      error
}

func (m *mockProducer) Publish(_ context.Context, msg kafka.Message) error {
	m.messages = append(m.messages, msg)
	return m.err
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &mockProducer{}
	pub := NewKafkaPublisher(producer, "jsonbin", logger.Discard())

	pub.Publish(context.Background(), Event{
		Type:          DocumentCreated,
		DocumentID:    "doc-1",
		Data:          []byte(`{"a":1,"b":[2]}`),
		CorrelationID: "req-9",
	})

	require.Len(t, producer.messages, 1)
	msg := producer.messages[0]
	assert.Equal(t, "doc-1", msg.Key)
	assert.JSONEq(t, `{"id":"doc-1","type":"document.created","data":{"a":1,"b":[2]}}`, string(msg.Value))
	assert.Equal(t, "document.created", msg.GetEventType())
	assert.Equal(t, "jsonbin", msg.Headers[kafka.HeaderSource])
	assert.Equal(t, "req-9", msg.GetCorrelationID())
	assert.NotEmpty(t, msg.GetEventID())
}

func TestKafkaPublisher_DeleteCarriesNullData(t *testing.T) {
	producer := &mockProducer{}
	NewKafkaPublisher(producer, "jsonbin", logger.Discard()).
		Publish(context.Background(), Event{Type: DocumentDeleted, DocumentID: "doc-2"})

	require.Len(t, producer.messages, 1)
	assert.JSONEq(t, `{"id":"doc-2","type":"document.deleted","data":null}`, string(producer.messages[0].Value))
}

func TestKafkaPublisher_SwallowsErrors(t *testing.T) {
	producer := &mockProducer{err: errors.New("broker down")}
	pub := NewKafkaPublisher(producer, "jsonbin", logger.Discard())

	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), Event{Type: DocumentReplaced, DocumentID: "doc-3", Data: []byte(`{}`)})
	})
	assert.Len(t, producer.messages, 1)
}

func TestNoopPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNoopPublisher().Publish(context.Background(), Event{Type: DocumentDeleted, DocumentID: "x"})
	})
}
