package repository

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// keyset paging: orders with id < beforeID (0 = from newest), newest first
	ListByUserIDBefore(ctx context.Context, userID int64, beforeID int64, limit int) ([]model.Order, error)
	Create(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
