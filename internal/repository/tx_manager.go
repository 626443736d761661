package repository

import "context"

// Repositories bound to one database transaction.
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Books() BookRepository
	Promos() PromoRepository
	Payments() PaymentRepository
	AuditLogs() AuditLogRepository
}

// Hides begin/commit/rollback from the usecases. fn returning an error rolls back.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
