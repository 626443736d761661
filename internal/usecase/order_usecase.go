package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/events"
	"bookstore/internal/observability"
	repo "bookstore/internal/repository"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultHistorySize = 10
	maxHistorySize     = 50
)

var tracer = otel.Tracer("bookstore/usecase")

type OrderOptions struct {
	// admins may only move orders forward through the lifecycle
	StrictTransitions bool
}

// OrderUsecase turns carts into orders and drives their status lifecycle.
// Events and notifications go out only after the transaction has committed.
type OrderUsecase struct {
	tx        repo.TransactionManager
	users     repo.UserRepository
	promos    *PromoUsecase
	publisher events.Publisher
	notifier  OrderNotifier
	renderer  DocumentRenderer
	logger    *zap.Logger
	opts      OrderOptions

	now         func() time.Time
	orderNumber func() string
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	promos *PromoUsecase,
	publisher events.Publisher,
	notifier OrderNotifier,
	renderer DocumentRenderer,
	logger *zap.Logger,
	opts OrderOptions,
) *OrderUsecase {
	return &OrderUsecase{
		tx:          tx,
		users:       users,
		promos:      promos,
		publisher:   publisher,
		notifier:    notifier,
		renderer:    renderer,
		logger:      logger,
		opts:        opts,
		now:         time.Now,
		orderNumber: newOrderNumber,
	}
}

const msgPaymentUsed = "Payment has already been used for an order"

func newOrderNumber() string {
	return "ORD-" + ulid.Make().String()
}

// PaymentCapture is a processor-confirmed charge stored with the order.
type PaymentCapture struct {
	IntentID string
	Amount   decimal.Decimal
	Currency string
}

type PlaceOrderInput struct {
	UserID          int64
	ShippingAddress string
	PaymentMethod   model.PaymentMethod
	// nil: live cart total minus PromoDiscount
	TotalAmount   *decimal.Decimal
	PromoCode     string
	PromoDiscount decimal.Decimal
	Payment       *PaymentCapture
}

type OrderItemOutput struct {
	BookID    int64           `json:"bookId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type OrderOutput struct {
	ID              int64             `json:"orderId"`
	OrderNumber     string            `json:"orderNumber"`
	UserID          int64             `json:"userId"`
	OrderedAt       time.Time         `json:"orderDate"`
	Status          string            `json:"status"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	Discount        decimal.Decimal   `json:"discount"`
	PromoCode       string            `json:"promoCode,omitempty"`
	ShippingAddress string            `json:"shippingAddress"`
	PaymentMethod   string            `json:"paymentMethod"`
	Items           []OrderItemOutput `json:"items"`
}

type OrderPage struct {
	Items []OrderOutput `json:"items"`
	// id to pass as cursor for the next page; nil on the last page
	NextCursor *int64 `json:"nextCursor"`
}

func (u *OrderUsecase) PlaceOrder(ctx context.Context, in PlaceOrderInput) (OrderOutput, error) {
	ctx, span := tracer.Start(ctx, "OrderUsecase.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", in.UserID))

	if in.UserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "Shipping address is required")
	}
	switch in.PaymentMethod {
	case model.PaymentMethodCard, model.PaymentMethodCOD:
	default:
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment method")
	}
	if in.PromoDiscount.IsNegative() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid promo discount")
	}

	user, err := u.users.FindByID(ctx, in.UserID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "User not found")
	}

	var (
		order model.Order
		lines []model.OrderItem
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, in.UserID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "Cannot place an order with an empty cart.")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "Cannot place an order with an empty cart.")
		}

		ids := make([]int64, 0, len(cartItems))
		for _, ci := range cartItems {
			ids = append(ids, ci.BookID)
		}
		books, err := r.Books().FindByIDs(ctx, ids)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// price and title are captured now and never recomputed
		now := u.now()
		lines = make([]model.OrderItem, 0, len(cartItems))
		subtotal := decimal.Zero
		for _, ci := range cartItems {
			b, ok := books[ci.BookID]
			if !ok {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Book %d is no longer available", ci.BookID))
			}
			line := model.OrderItem{
				BookID:    b.ID,
				BookTitle: b.Title,
				UnitPrice: b.Price,
				Quantity:  ci.Quantity,
				CreatedAt: now,
			}
			subtotal = subtotal.Add(line.LineTotal())
			lines = append(lines, line)
		}

		total := subtotal.Sub(in.PromoDiscount)
		if in.TotalAmount != nil {
			total = *in.TotalAmount
		}
		if total.IsNegative() {
			total = decimal.Zero
		}

		order = model.Order{
			OrderNumber:     u.orderNumber(),
			UserID:          in.UserID,
			OrderedAt:       now,
			TotalAmount:     total.Round(2),
			Discount:        in.PromoDiscount.Round(2),
			PromoCode:       model.NormalizePromoCode(in.PromoCode),
			ShippingAddress: address,
			PaymentMethod:   in.PaymentMethod,
			Status:          model.OrderStatusNewOrder,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := r.Orders().Create(ctx, &order); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return NewHTTPError(http.StatusConflict, "order number conflict")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, lines); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if order.PromoCode != "" {
			if err := u.promos.RedeemTx(ctx, r, order.PromoCode, in.UserID, order.ID); err != nil {
				return err
			}
		}

		if in.Payment != nil {
			if err := r.Payments().Create(ctx, &model.Payment{
				OrderID:   &order.ID,
				IntentID:  in.Payment.IntentID,
				Amount:    in.Payment.Amount,
				Currency:  in.Payment.Currency,
				Status:    model.PaymentStatusSucceeded,
				CreatedAt: now,
			}); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return NewHTTPError(http.StatusConflict, msgPaymentUsed)
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Carts().Delete(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return OrderOutput{}, err
	}

	span.SetAttributes(attribute.String("order.number", order.OrderNumber))
	observability.OrdersPlacedTotal.WithLabelValues(string(order.PaymentMethod)).Inc()
	if reconciled := model.ReconciledTotal(lines, order.Discount); !reconciled.Equal(order.TotalAmount) {
		observability.OrderTotalMismatchTotal.Inc()
		u.logger.Warn("order total does not match its lines",
			zap.String("order_number", order.OrderNumber),
			zap.String("total_amount", order.TotalAmount.StringFixed(2)),
			zap.String("reconciled", reconciled.StringFixed(2)),
		)
	}
	u.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("user_id", order.UserID),
		zap.Int("lines", len(lines)),
	)

	u.emit(ctx, model.EventOrderCreated, order, events.OrderCreatedPayload{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount.StringFixed(2),
	})
	u.notifier.OrderCreated(ctx, order)

	return toOrderOutput(order, lines), nil
}

// UpdateStatus moves an order to a new status. Setting the current status
// again is a no-op and emits nothing.
func (u *OrderUsecase) UpdateStatus(ctx context.Context, orderID int64, newStatus string) (OrderOutput, error) {
	next, err := model.ParseOrderStatus(newStatus)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ch, err := u.transition(ctx, orderID, next, statusHooks{})
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(ch.order, ch.items), nil
}

// CancelOwnOrder lets a customer cancel an order that has not been delivered.
func (u *OrderUsecase) CancelOwnOrder(ctx context.Context, userID int64, orderID int64, reason string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	reason = strings.TrimSpace(reason)

	ch, err := u.transition(ctx, orderID, model.OrderStatusCanceled, statusHooks{
		check: func(o model.Order) error {
			if o.UserID != userID {
				return NewHTTPError(http.StatusForbidden, "You can only cancel your own orders")
			}
			if !o.Status.CustomerCancelable() {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Order cannot be cancelled in status %s", o.Status))
			}
			return nil
		},
		updated: func(r repo.TxRepos, o model.Order, previous model.OrderStatus) error {
			return r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  userID,
				Action:       model.AuditActionCancelOrder,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   strconv.FormatInt(o.ID, 10),
				BeforeJSON:   statusJSON(previous, ""),
				AfterJSON:    statusJSON(o.Status, reason),
				CreatedAt:    u.now(),
			})
		},
	})
	if err != nil {
		return OrderOutput{}, err
	}
	u.logger.Info("order canceled by customer",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", userID),
		zap.String("reason", reason),
	)
	return toOrderOutput(ch.order, ch.items), nil
}

type statusHooks struct {
	// runs on the loaded order before anything is written
	check func(o model.Order) error
	// runs in the same transaction after the status was written
	updated func(r repo.TxRepos, o model.Order, previous model.OrderStatus) error
}

type statusChange struct {
	order    model.Order
	items    []model.OrderItem
	previous model.OrderStatus
	changed  bool
}

func (u *OrderUsecase) transition(ctx context.Context, orderID int64, next model.OrderStatus, hooks statusHooks) (statusChange, error) {
	ctx, span := tracer.Start(ctx, "OrderUsecase.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.String("order.status", string(next)))

	var ch statusChange
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if hooks.check != nil {
			if err := hooks.check(o); err != nil {
				return err
			}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		ch = statusChange{order: o, items: items, previous: o.Status}

		if o.Status == next {
			return nil
		}
		if u.opts.StrictTransitions && !o.Status.CanAdvanceTo(next) {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Cannot change order status from %s to %s", o.Status, next))
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, next); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "Order not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		ch.order.Status = next
		ch.order.UpdatedAt = u.now()
		ch.changed = true

		if hooks.updated != nil {
			if err := hooks.updated(r, ch.order, ch.previous); err != nil {
				if _, ok := AsHTTPError(err); ok {
					return err
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return statusChange{}, err
	}
	if !ch.changed {
		return ch, nil
	}

	observability.OrderStatusUpdatesTotal.WithLabelValues(string(next)).Inc()
	u.logger.Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", string(ch.previous)),
		zap.String("to", string(next)),
	)
	u.emit(ctx, model.EventOrderStatusUpdated, ch.order, events.OrderStatusUpdatedPayload{
		Status:         string(next),
		PreviousStatus: string(ch.previous),
		OrderNumber:    ch.order.OrderNumber,
	})
	u.notifier.OrderStatusChanged(ctx, ch.order, ch.previous)
	return ch, nil
}

// emit never fails the caller; the publisher logs and parks failures.
func (u *OrderUsecase) emit(ctx context.Context, eventType model.EventType, o model.Order, payload any) {
	ev, err := events.NewDomainEvent(eventType, model.AggregateOrder, strconv.FormatInt(o.ID, 10), payload, observability.TraceID(ctx))
	if err != nil {
		u.logger.Error("build domain event", zap.String("event_type", string(eventType)), zap.Error(err))
		return
	}
	u.publisher.PublishEvent(ctx, events.TopicOrders, ev)
}

// ListMyOrders pages newest first. cursor is the last id of the previous page, 0 for the first.
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, cursor int64, size int) (OrderPage, error) {
	if userID <= 0 {
		return OrderPage{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cursor < 0 {
		return OrderPage{}, NewHTTPError(http.StatusBadRequest, "invalid cursor")
	}
	size = clampHistorySize(size)

	page := OrderPage{Items: []OrderOutput{}}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByUserIDBefore(ctx, userID, cursor, size)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			page.Items = append(page.Items, toOrderOutput(o, items))
		}
		if len(orders) == size {
			last := orders[len(orders)-1].ID
			page.NextCursor = &last
		}
		return nil
	})
	if err != nil {
		return OrderPage{}, err
	}
	return page, nil
}

func clampHistorySize(size int) int {
	if size == 0 {
		return defaultHistorySize
	}
	if size < 1 {
		return 1
	}
	if size > maxHistorySize {
		return maxHistorySize
	}
	return size
}

// GetMyOrder answers 403 for an order that belongs to someone else.
func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	o, items, err := u.loadOwned(ctx, userID, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o, items), nil
}

func (u *OrderUsecase) Invoice(ctx context.Context, userID int64, orderID int64) (Document, error) {
	o, items, err := u.loadOwned(ctx, userID, orderID)
	if err != nil {
		return Document{}, err
	}
	doc, err := u.renderer.RenderInvoice(o, items)
	if err != nil {
		u.logger.Error("render invoice", zap.Int64("order_id", orderID), zap.Error(err))
		return Document{}, NewHTTPError(http.StatusInternalServerError, "Failed to generate invoice")
	}
	return doc, nil
}

func (u *OrderUsecase) loadOwned(ctx context.Context, userID int64, orderID int64) (model.Order, []model.OrderItem, error) {
	if userID <= 0 {
		return model.Order{}, nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Order{}, nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var (
		order model.Order
		items []model.OrderItem
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		items, err = r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		order = o
		return nil
	})
	return order, items, err
}

type statusAudit struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func statusJSON(status model.OrderStatus, reason string) string {
	b, _ := json.Marshal(statusAudit{Status: string(status), Reason: reason})
	return string(b)
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			BookID:    it.BookID,
			Title:     it.BookTitle,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		OrderedAt:       o.OrderedAt,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		Discount:        o.Discount,
		PromoCode:       o.PromoCode,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		Items:           outItems,
	}
}
