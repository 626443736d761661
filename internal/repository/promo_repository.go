package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type PromoRepository interface {
	FindByCode(ctx context.Context, code string) (model.PromoCode, error)
	// current_uses + 1 only while current_uses < max_uses; ErrConditionFailed otherwise
	IncrementUsage(ctx context.Context, code string) error
}
