package model

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventOrderCreated       EventType = "ORDER_CREATED"
	EventOrderStatusUpdated EventType = "ORDER_STATUS_UPDATED"
)

const (
	AggregateOrder       = "order"
	CurrentSchemaVersion = 1
)

// DomainEvent is written once and never mutated after publication.
type DomainEvent struct {
	EventID       string          `json:"eventId"`
	EventType     EventType       `json:"eventType"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload"`
	SchemaVersion int             `json:"schemaVersion"`
	CorrelationID string          `json:"correlationId,omitempty"`
}
