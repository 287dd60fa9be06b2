package kafka_config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config describes where change events go and how the producer writes them.
type Config struct {
	Brokers  []string
	Topic    string
	DLQTopic string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerWriteTimeout time.Duration
	ProducerRequireAcks  int // -1 all replicas, 0 none, 1 leader
	ProducerCompression  string
	ProducerAsync        bool
}

// Load reads the Kafka configuration from the environment. It returns nil
// when no brokers are configured, which disables change events.
func Load() *Config {
	var brokers []string
	for _, broker := range strings.Split(os.Getenv(EnvKafkaBrokers), ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	if len(brokers) == 0 {
		return nil
	}

	return &Config{
		Brokers:  brokers,
		Topic:    envOr(EnvKafkaTopic, DefaultTopic, parseString),
		DLQTopic: envOr(EnvKafkaDLQTopic, "", parseString),

		ProducerMaxAttempts:  envOr(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts, strconv.Atoi),
		ProducerBatchTimeout: envOr(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout, time.ParseDuration),
		ProducerWriteTimeout: envOr(EnvKafkaProducerWriteTimeout, DefaultProducerWriteTimeout, time.ParseDuration),
		ProducerRequireAcks:  envOr(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks, strconv.Atoi),
		ProducerCompression:  strings.ToLower(envOr(EnvKafkaProducerCompression, DefaultProducerCompression, parseString)),
		ProducerAsync:        envOr(EnvKafkaProducerAsync, DefaultProducerAsync, strconv.ParseBool),
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if len(cfg.Brokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		errors = append(errors, "Topic cannot be empty")
	}
	if cfg.DLQTopic != "" && cfg.DLQTopic == cfg.Topic {
		errors = append(errors, fmt.Sprintf("DLQTopic must differ from Topic, both are %q", cfg.Topic))
	}

	if cfg.ProducerMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts))
	}
	if cfg.ProducerBatchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerBatchTimeout must be positive, got: %s", cfg.ProducerBatchTimeout))
	}
	if cfg.ProducerWriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerWriteTimeout must be positive, got: %s", cfg.ProducerWriteTimeout))
	}
	if !slices.Contains(Compressions, cfg.ProducerCompression) {
		errors = append(errors, fmt.Sprintf("ProducerCompression must be one of %v, got: %s", Compressions, cfg.ProducerCompression))
	}
	if cfg.ProducerRequireAcks < -1 || cfg.ProducerRequireAcks > 1 {
		errors = append(errors, fmt.Sprintf("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks))
	}

	if len(errors) > 0 {
		return fmt.Errorf("Kafka %s", strings.Join(errors, "; "))
	}
	return nil
}

func (cfg *Config) LogConfiguration(logFunc func(msg string, keysAndValues ...any)) {
	if logFunc == nil {
		return
	}

	logFunc("Change event producer configured",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"dlq_topic", cfg.DLQTopic,
		"max_attempts", cfg.ProducerMaxAttempts,
		"batch_timeout", cfg.ProducerBatchTimeout,
		"write_timeout", cfg.ProducerWriteTimeout,
		"require_acks", cfg.ProducerRequireAcks,
		"compression", cfg.ProducerCompression,
		"async", cfg.ProducerAsync,
	)
}

func parseString(s string) (string, error) { return s, nil }

// envOr parses key with parse, falling back when it is unset or invalid.
func envOr[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}
