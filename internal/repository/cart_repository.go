package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// removes the cart row together with its items
	Delete(ctx context.Context, cartID int64) error
}
