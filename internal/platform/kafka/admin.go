package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"recordhub/internal/platform/config"
	"recordhub/internal/platform/kafka/producer"
)

// EnsureTopics creates any missing topics using the broker defaults for
// partitions and replication.
func EnsureTopics(ctx context.Context, cfg config.KafkaConfig, topics ...string) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(producer.Brokers(cfg.Brokers)...))
	if err != nil {
		return fmt.Errorf("create kafka admin client: %w", err)
	}
	defer client.Close()

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, -1, -1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, r := range resp.Sorted() {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
