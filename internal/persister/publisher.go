// Package persister hands validated and enriched write requests to the message
// bus, where an external persister applies them to the relational store.
package persister

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"recordhub/internal/platform/kafka/producer"
	"recordhub/internal/platform/metrics"
	"recordhub/pkg/requestcontext"
)

// Producer is the subset of the Kafka producer used here.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// BusPublisher serializes payloads as JSON and produces them keyed by tenant,
// so all writes for a tenant stay ordered within one partition.
type BusPublisher struct {
	producer Producer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*BusPublisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *BusPublisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *BusPublisher) {
		p.metrics = m
	}
}

func New(p Producer, opts ...Option) *BusPublisher {
	bp := &BusPublisher{producer: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(bp)
	}
	return bp
}

// Publish sends payload to topic.
func (p *BusPublisher) Publish(ctx context.Context, topic, tenantID string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	msg := &producer.Message{
		Topic: topic,
		Key:   []byte(tenantID),
		Value: value,
		Headers: map[string]string{
			"tenant_id": tenantID,
		},
	}
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		msg.Headers["request_id"] = reqID
	}

	err = p.producer.Produce(ctx, msg)
	p.metrics.IncrementPublished(topic, err)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish to persister bus",
			"topic", topic,
			"tenant_id", tenantID,
			"error", err,
		)
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
