package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindByIntentID(ctx context.Context, intentID string) (model.Payment, error)
}
