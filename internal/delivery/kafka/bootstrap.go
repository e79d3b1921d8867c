package kafka

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/avasilenko/vending-machine/internal/config"
)

// EnsureTopics creates the telemetry topics if they do not exist yet.
func EnsureTopics(ctx context.Context, client *kgo.Client, cfg *config.Config) error {
	adm := kadm.NewClient(client)

	topics := []string{TopicSale, TopicRefund, TopicRestock}
	partitions := cfg.TopicPartitions()
	replicationFactor := cfg.ReplicationFactor()

	for _, topic := range topics {
		resp, err := adm.CreateTopics(ctx, int32(partitions), replicationFactor, nil, topic)
		if err != nil {
			return fmt.Errorf("failed to create topic %s: %w", topic, err)
		}
		for _, detail := range resp {
			if detail.Err != nil && !strings.Contains(detail.Err.Error(), "already exists") {
				return fmt.Errorf("failed to create topic %s: %w", detail.Topic, detail.Err)
			}
		}
	}

	log.Println("All topics ensured")
	return nil
}
