package kafka

import (
	"context"

	"github.com/avasilenko/vending-machine/internal/domain"
	"github.com/avasilenko/vending-machine/internal/usecase"
)

// NoopPublisher is wired when telemetry is disabled.
type NoopPublisher struct{}

func NewNoopPublisher() usecase.EventPublisher {
	return &NoopPublisher{}
}

func (*NoopPublisher) Sale(context.Context, string, string, domain.Pence, domain.Pence, []domain.Denomination) {
}

func (*NoopPublisher) Refund(context.Context, string, []domain.Denomination) {}

func (*NoopPublisher) Restock(context.Context, int, int) {}
