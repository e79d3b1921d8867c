package usecase

import (
	"context"

	"github.com/avasilenko/vending-machine/internal/domain"
)

// StockStore loads and saves the machine's item and coin stock.
type StockStore interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) error
}

// EventPublisher receives telemetry about completed machine activity.
// Publishing is best effort; implementations must not block the
// transaction path on broker availability.
type EventPublisher interface {
	Sale(ctx context.Context, txID, item string, price, paid domain.Pence, change []domain.Denomination)
	Refund(ctx context.Context, txID string, coins []domain.Denomination)
	Restock(ctx context.Context, items, coins int)
}
