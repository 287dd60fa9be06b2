package kafka

import (
	"context"
	"testing"

	kafka_config "jsonbin/pkg/kafka/config"
	"jsonbin/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilder_Build(t *testing.T) {
	msg, err := NewMessage().
		WithKey("doc-1").
		WithValue(map[string]string{"id": "doc-1"}).
		WithEventType("document.created").
		WithSource("jsonbin").
		WithCorrelationID("").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "doc-1", msg.Key)
	assert.JSONEq(t, `{"id":"doc-1"}`, string(msg.Value))
	assert.Equal(t, "document.created", msg.GetEventType())
	assert.NotEmpty(t, msg.GetEventID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])
	assert.NotContains(t, msg.Headers, HeaderCorrelationID)
	assert.NoError(t, msg.Validate())
}

func TestMessageBuilder_UnencodableValue(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.Error(t, err)
}

func TestMessage_Validate(t *testing.T) {
	assert.ErrorIs(t, Message{Value: []byte("x")}.Validate(), ErrEmptyKey)
	assert.ErrorIs(t, Message{Key: "k"}.Validate(), ErrEmptyValue)
}

func TestMessage_ToKafkaSortsHeaders(t *testing.T) {
	msg := Message{
		Key:     "k",
		Value:   []byte("{}"),
		Headers: map[string]string{"b": "2", "a": "1", "c": "3"},
	}
	out := msg.toKafka()
	require.Len(t, out.Headers, 3)
	assert.Equal(t, "a", out.Headers[0].Key)
	assert.Equal(t, "b", out.Headers[1].Key)
	assert.Equal(t, "c", out.Headers[2].Key)
	assert.Equal(t, []byte("k"), out.Key)
}

func TestNewProducer_Validation(t *testing.T) {
	log := logger.Discard()

	_, err := NewProducer(nil, "t", log)
	assert.Error(t, err)

	_, err = NewProducer(&kafka_config.Config{}, "t", log)
	assert.Error(t, err)

	_, err = NewProducer(&kafka_config.Config{Brokers: []string{"localhost:9092"}}, "", log)
	assert.Error(t, err)
}

func TestProducer_PublishAfterClose(t *testing.T) {
	p, err := NewProducer(&kafka_config.Config{
		Brokers:             []string{"localhost:9092"},
		ProducerMaxAttempts: 1,
		ProducerCompression: "none",
	}, "documents.events", logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "documents.events", p.Topic())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	err = p.Publish(context.Background(), Message{Key: "k", Value: []byte("{}")})
	assert.ErrorIs(t, err, ErrProducerClosed)
}
