package events

import "time"

const (
	TopicOrders        = "orders.events"
	TopicNotifications = "notifications.events"
	TopicDLQ           = "dlq.events"

	// Reserved for a future saga coordinator. Nothing publishes to them yet.
	TopicSagaFailed            = "saga.failed"
	TopicSagaCompensated       = "saga.compensated"
	TopicSagaInventoryReserved = "saga.inventory.reserved"
	TopicSagaPaymentProcessed  = "saga.payment.processed"
	TopicSagaShipmentCreated   = "saga.shipment.created"
)

type TopicSpec struct {
	Name       string
	Partitions int32
	// zero keeps the broker default
	Retention time.Duration
}

func DefaultTopics() []TopicSpec {
	return []TopicSpec{
		{Name: TopicOrders, Partitions: 3},
		{Name: TopicNotifications, Partitions: 3},
		{Name: TopicDLQ, Partitions: 3, Retention: 30 * 24 * time.Hour},
		{Name: TopicSagaFailed, Partitions: 3},
		{Name: TopicSagaCompensated, Partitions: 3},
		{Name: TopicSagaInventoryReserved, Partitions: 3},
		{Name: TopicSagaPaymentProcessed, Partitions: 3},
		{Name: TopicSagaShipmentCreated, Partitions: 3},
	}
}
