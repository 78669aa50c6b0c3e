package orders

const (
	TopicOrderPlaced        = "orders.placed"
	TopicOrderStatusChanged = "orders.status.changed"
)

// Partition key = order id, so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
