package kafka_config

import "time"

const (
	DefaultTopic = "documents.events"

	// Change events are small JSON payloads; a short linger keeps request
	// latency low when the producer runs synchronously.
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerWriteTimeout = 5 * time.Second
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false
)

// Compressions lists the accepted KAFKA_PRODUCER_COMPRESSION values.
var Compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}
