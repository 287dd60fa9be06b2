package kafka_middleware

import (
	"context"
	"time"

	"jsonbin/pkg/kafka"
	"jsonbin/pkg/metrics"
)

// MetricsProducerMiddleware records publish outcomes and latency
func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		metrics.EventPublishDuration.Observe(time.Since(start).Seconds())
		metrics.EventsPublished.WithLabelValues(msg.GetEventType(), metrics.Outcome(err)).Inc()
		return err
	}
}
