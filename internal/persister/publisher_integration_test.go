//go:build integration

package persister_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"recordhub/internal/persister"
	"recordhub/internal/platform/config"
	"recordhub/internal/platform/kafka"
	"recordhub/internal/platform/kafka/producer"
	"recordhub/pkg/requestcontext"
	"recordhub/pkg/testutil/containers"
)

const topic = "save-bank-account"

type PublisherSuite struct {
	suite.Suite
	kafka     *containers.KafkaContainer
	producer  *producer.Producer
	publisher *persister.BusPublisher
}

func TestPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
	cfg := config.KafkaConfig{Brokers: s.kafka.Brokers, Acks: "all", Retries: 3, DeliveryTimeout: 10 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Require().NoError(kafka.EnsureTopics(ctx, cfg, topic))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := producer.New(cfg, logger)
	s.Require().NoError(err)
	s.producer = p
	s.publisher = persister.New(p, persister.WithLogger(logger))
}

func (s *PublisherSuite) TearDownSuite() {
	if s.producer != nil {
		s.Require().NoError(s.producer.Close())
	}
}

func (s *PublisherSuite) TestPublishedRecordCarriesTenantKeyAndHeaders() {
	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	payload := map[string]any{"bankAccounts": []map[string]any{{"id": "a1"}}}

	s.Require().NoError(s.publisher.Publish(ctx, topic, "pb.amritsar", payload))

	consumer, err := s.kafka.NewConsumer(topic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForRecord(ctx, consumer, 20*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "pb.amritsar"
	})
	s.Require().NotNil(record, "record not consumed in time")

	headers := map[string]string{}
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal("pb.amritsar", headers["tenant_id"])
	s.Equal("req-42", headers["request_id"])

	var got map[string]any
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Contains(got, "bankAccounts")
}

func (s *PublisherSuite) TestEnsureTopicsIsIdempotent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.NoError(kafka.EnsureTopics(ctx, config.KafkaConfig{Brokers: s.kafka.Brokers}, topic))
}

func (s *PublisherSuite) TestHealth() {
	s.NoError(s.producer.Health(context.Background()))
}
