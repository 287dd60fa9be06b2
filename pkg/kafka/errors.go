package kafka

import "errors"

var (
	ErrProducerClosed = errors.New("kafka producer is closed")

	// Change events are keyed by document id and always carry a payload.
	ErrEmptyKey   = errors.New("message key cannot be empty")
	ErrEmptyValue = errors.New("message value cannot be empty")
)
