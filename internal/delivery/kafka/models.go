package kafka

import "time"

type SaleEvent struct {
	SchemaVersion int       `json:"schema_version"`
	TransactionID string    `json:"transaction_id"`
	Item          string    `json:"item"`
	Price         string    `json:"price"`
	Paid          string    `json:"paid"`
	Change        []string  `json:"change"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type RefundEvent struct {
	SchemaVersion int       `json:"schema_version"`
	TransactionID string    `json:"transaction_id"`
	Coins         []string  `json:"coins"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type RestockEvent struct {
	SchemaVersion int       `json:"schema_version"`
	ItemRecords   int       `json:"item_records"`
	CoinRecords   int       `json:"coin_records"`
	OccurredAt    time.Time `json:"occurred_at"`
}
