package kafka

const (
	TopicSale    = "vend.sale"
	TopicRefund  = "vend.refund"
	TopicRestock = "vend.restock"

	schemaVersion = 1
)
