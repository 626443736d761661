package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// same book accumulates
	AddQuantity(ctx context.Context, cartID int64, bookID int64, addQty int64) error
	SetQuantity(ctx context.Context, cartID int64, bookID int64, qty int64) error
	DeleteByBook(ctx context.Context, cartID int64, bookID int64) error
	DeleteByCartID(ctx context.Context, cartID int64) error
}
