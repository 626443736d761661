package events

import (
	"encoding/json"
	"fmt"
	"time"

	"bookstore/internal/domain/model"

	"github.com/google/uuid"
)

// NewDomainEvent stamps a fresh event id and the current schema version.
func NewDomainEvent(eventType model.EventType, aggregateType, aggregateID string, payload any, correlationID string) (model.DomainEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return model.DomainEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return model.DomainEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    time.Now().UTC(),
		Payload:       raw,
		SchemaVersion: model.CurrentSchemaVersion,
		CorrelationID: correlationID,
	}, nil
}

type OrderCreatedPayload struct {
	OrderNumber string `json:"orderNumber"`
	UserID      int64  `json:"userId"`
	TotalAmount string `json:"totalAmount"`
}

type OrderStatusUpdatedPayload struct {
	Status         string `json:"status"`
	PreviousStatus string `json:"previousStatus"`
	OrderNumber    string `json:"orderNumber"`
}
