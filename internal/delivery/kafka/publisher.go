package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/avasilenko/vending-machine/internal/domain"
	"github.com/avasilenko/vending-machine/internal/usecase"
)

// Publisher emits machine telemetry to Kafka. Production is
// fire-and-forget: a broker outage is logged, never surfaced to the
// transaction path.
type Publisher struct {
	client *kgo.Client
}

func NewPublisher(client *kgo.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Sale(ctx context.Context, txID, item string, price, paid domain.Pence, change []domain.Denomination) {
	p.produce(ctx, TopicSale, txID, SaleEvent{
		SchemaVersion: schemaVersion,
		TransactionID: txID,
		Item:          item,
		Price:         price.String(),
		Paid:          paid.String(),
		Change:        coinCodes(change),
		OccurredAt:    time.Now().UTC(),
	})
}

func (p *Publisher) Refund(ctx context.Context, txID string, coins []domain.Denomination) {
	p.produce(ctx, TopicRefund, txID, RefundEvent{
		SchemaVersion: schemaVersion,
		TransactionID: txID,
		Coins:         coinCodes(coins),
		OccurredAt:    time.Now().UTC(),
	})
}

func (p *Publisher) Restock(ctx context.Context, items, coins int) {
	p.produce(ctx, TopicRestock, "", RestockEvent{
		SchemaVersion: schemaVersion,
		ItemRecords:   items,
		CoinRecords:   coins,
		OccurredAt:    time.Now().UTC(),
	})
}

func (p *Publisher) produce(ctx context.Context, topic, key string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", topic, err)
		return
	}

	record := &kgo.Record{Topic: topic, Value: payload}
	if key != "" {
		record.Key = []byte(key)
	}

	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			log.Printf("Failed to produce %s event: %v", topic, err)
		}
	})
}

func coinCodes(coins []domain.Denomination) []string {
	codes := make([]string, 0, len(coins))
	for _, d := range coins {
		codes = append(codes, d.String())
	}
	return codes
}

var _ usecase.EventPublisher = (*Publisher)(nil)
