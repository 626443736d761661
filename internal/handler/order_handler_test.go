package handler

import (
	"context"
	"net/http"
	"testing"

	"bookstore/internal/domain/model"
	"bookstore/internal/infra/invoice"
	"bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubTx runs fn against in-memory order reads; other repositories are unset.
type stubTx struct {
	repository.TxRepos
	orders map[int64]model.Order
	items  map[int64][]model.OrderItem
}

func (s *stubTx) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) error {
	return fn(s)
}

func (s *stubTx) Orders() repository.OrderRepository         { return stubOrders{s} }
func (s *stubTx) OrderItems() repository.OrderItemRepository { return stubOrderItems{s} }

type stubOrders struct {
	*stubTx
}

func (s stubOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (s stubOrders) ListByUserIDBefore(ctx context.Context, userID int64, beforeID int64, limit int) ([]model.Order, error) {
	return nil, nil
}

func (s stubOrders) Create(ctx context.Context, order *model.Order) error { return nil }

func (s stubOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return nil
}

func (s stubOrders) ListAdmin(ctx context.Context, f repository.AdminOrderListFilter) ([]model.Order, int64, error) {
	out := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if f.Status == "" || string(o.Status) == f.Status {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

type stubOrderItems struct {
	*stubTx
}

func (s stubOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	return nil
}

func (s stubOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return s.items[orderID], nil
}

func newOrderServer(t *testing.T, tx *stubTx) *echo.Echo {
	logger := zaptest.NewLogger(t)
	orders := usecase.NewOrderUsecase(tx, activeUsers(1, 2), nil, nil, nil, invoice.NewTextRenderer("Book Nook"), logger, usecase.OrderOptions{})

	e := echo.New()
	NewOrderHandler(orders, nil).RegisterRoutes(e, testCfg, activeUsers(1, 2))
	return e
}

func placedOrder() *stubTx {
	return &stubTx{
		orders: map[int64]model.Order{
			7: {
				ID:              7,
				OrderNumber:     "ORD-7",
				UserID:          1,
				TotalAmount:     decimal.RequireFromString("25.00"),
				Discount:        decimal.Zero,
				ShippingAddress: "1 Baker Street",
				PaymentMethod:   model.PaymentMethodCOD,
				Status:          model.OrderStatusNewOrder,
			},
		},
		items: map[int64][]model.OrderItem{
			7: {{OrderID: 7, BookID: 3, BookTitle: "Dune", UnitPrice: decimal.RequireFromString("12.50"), Quantity: 2}},
		},
	}
}

func TestOrderHandler_CreateRejectsBadMethod(t *testing.T) {
	e := newOrderServer(t, placedOrder())

	rec := do(t, e, http.MethodPost, "/api/orders", bearer(t, 1, model.RoleUser), OrderCreateRequest{
		ShippingAddress: "1 Baker Street",
		PaymentMethod:   "BITCOIN",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid payment method", errorOf(t, rec))
}

func TestOrderHandler_CardNeedsIntent(t *testing.T) {
	e := newOrderServer(t, placedOrder())

	rec := do(t, e, http.MethodPost, "/api/orders", bearer(t, 1, model.RoleUser), OrderCreateRequest{
		ShippingAddress: "1 Baker Street",
		PaymentMethod:   "card",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "paymentIntentId is required for card orders", errorOf(t, rec))
}

func TestOrderHandler_Detail(t *testing.T) {
	e := newOrderServer(t, placedOrder())

	rec := do(t, e, http.MethodGet, "/api/orders/7", bearer(t, 1, model.RoleUser), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody[usecase.OrderOutput](t, rec)
	assert.Equal(t, "ORD-7", out.OrderNumber)
	require.Len(t, out.Items, 1)

	// someone else's order
	rec = do(t, e, http.MethodGet, "/api/orders/7", bearer(t, 2, model.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/orders/8", bearer(t, 1, model.RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderHandler_ListBadQuery(t *testing.T) {
	e := newOrderServer(t, placedOrder())

	rec := do(t, e, http.MethodGet, "/api/orders?cursor=-1", bearer(t, 1, model.RoleUser), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/orders?size=ten", bearer(t, 1, model.RoleUser), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandler_Invoice(t *testing.T) {
	e := newOrderServer(t, placedOrder())

	rec := do(t, e, http.MethodGet, "/api/orders/7/invoice", bearer(t, 1, model.RoleUser), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="invoice-ORD-7.txt"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Contains(t, rec.Body.String(), "Dune")
	assert.Contains(t, rec.Body.String(), "Book Nook")
}
