package usecase

import (
	"context"

	"bookstore/internal/domain/model"
)

// OrderNotifier delivers user-facing notifications. Implementations are
// best-effort and never fail the caller.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, order model.Order)
	OrderStatusChanged(ctx context.Context, order model.Order, previous model.OrderStatus)
	PaymentSucceeded(ctx context.Context, order model.Order)
}

type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type DocumentRenderer interface {
	RenderInvoice(order model.Order, items []model.OrderItem) (Document, error)
}

type IntentRequest struct {
	// smallest currency unit
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountMinor  int64
	Currency     string
}

// PaymentProcessor is the card processor. Calls are not retried here.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
}
