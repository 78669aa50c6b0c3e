package orders

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/anasol/cafe-orders/internal/kafka"
)

// Publisher receives domain events after the enclosing transaction commits.
// Publishing is best-effort and must never fail the operation.
type Publisher interface {
	OrderPlaced(view OrderView, user User)
	StatusChanged(orderID string, from, to Status, stockRestored bool)
}

// KafkaPublisher emits versioned envelopes, one topic per event type,
// partitioned by order id so each order's events stay ordered.
type KafkaPublisher struct {
	Placed  *kafkax.Producer
	Status  *kafkax.Producer
	Service string
}

func (p *KafkaPublisher) OrderPlaced(view OrderView, user User) {
	p.publish(p.Placed, EventOrderPlaced, view.ID, OrderPlacedPayload{
		OrderID:   view.ID,
		UserID:    user.ID,
		BranchID:  view.BranchID,
		ProductID: view.ProductID,
		Quantity:  view.Quantity,
	})
}

func (p *KafkaPublisher) StatusChanged(orderID string, from, to Status, stockRestored bool) {
	p.publish(p.Status, EventOrderStatusChanged, orderID, OrderStatusChangedPayload{
		OrderID:       orderID,
		OldStatus:     from,
		NewStatus:     to,
		StockRestored: stockRestored,
	})
}

func (p *KafkaPublisher) publish(prod *kafkax.Producer, eventType, orderID string, payload any) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	prod.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
