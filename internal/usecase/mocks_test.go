package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/events"
	repo "bookstore/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos
// =====================

type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	carts      repo.CartRepository
	cartItems  repo.CartItemRepository
	books      repo.BookRepository
	promos     repo.PromoRepository
	payments   repo.PaymentRepository
	auditLogs  repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) Carts() repo.CartRepository           { return r.carts }
func (r *TxReposMock) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *TxReposMock) Books() repo.BookRepository           { return r.books }
func (r *TxReposMock) Promos() repo.PromoRepository         { return r.promos }
func (r *TxReposMock) Payments() repo.PaymentRepository     { return r.payments }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserIDBefore(ctx context.Context, userID int64, beforeID int64, limit int) ([]model.Order, error) {
	args := m.Called(ctx, userID, beforeID, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil && order.ID == 0 {
		order.ID = 100
	}
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) Delete(ctx context.Context, cartID int64) error {
	return m.Called(ctx, cartID).Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) AddQuantity(ctx context.Context, cartID int64, bookID int64, addQty int64) error {
	return m.Called(ctx, cartID, bookID, addQty).Error(0)
}

func (m *CartItemRepoMock) SetQuantity(ctx context.Context, cartID int64, bookID int64, qty int64) error {
	return m.Called(ctx, cartID, bookID, qty).Error(0)
}

func (m *CartItemRepoMock) DeleteByBook(ctx context.Context, cartID int64, bookID int64) error {
	return m.Called(ctx, cartID, bookID).Error(0)
}

func (m *CartItemRepoMock) DeleteByCartID(ctx context.Context, cartID int64) error {
	return m.Called(ctx, cartID).Error(0)
}

type BookRepoMock struct{ mock.Mock }

func (m *BookRepoMock) FindByID(ctx context.Context, id int64) (model.Book, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(model.Book)
	return b, args.Error(1)
}

func (m *BookRepoMock) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Book, error) {
	args := m.Called(ctx, ids)
	books, _ := args.Get(0).(map[int64]model.Book)
	return books, args.Error(1)
}

func (m *BookRepoMock) List(ctx context.Context, q repo.BookListQuery) ([]model.Book, int64, error) {
	args := m.Called(ctx, q)
	books, _ := args.Get(0).([]model.Book)
	return books, args.Get(1).(int64), args.Error(2)
}

type PromoRepoMock struct{ mock.Mock }

func (m *PromoRepoMock) FindByCode(ctx context.Context, code string) (model.PromoCode, error) {
	args := m.Called(ctx, code)
	p, _ := args.Get(0).(model.PromoCode)
	return p, args.Error(1)
}

func (m *PromoRepoMock) IncrementUsage(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

type PaymentRepoMock struct{ mock.Mock }

func (m *PaymentRepoMock) Create(ctx context.Context, p *model.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *PaymentRepoMock) FindByIntentID(ctx context.Context, intentID string) (model.Payment, error) {
	args := m.Called(ctx, intentID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *AuditRepoMock) ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID string, limit int) ([]model.AuditLog, error) {
	args := m.Called(ctx, resourceType, resourceID, limit)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type SettingRepoMock struct{ mock.Mock }

func (m *SettingRepoMock) List(ctx context.Context) ([]model.Setting, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]model.Setting)
	return rows, args.Error(1)
}

func (m *SettingRepoMock) Get(ctx context.Context, key string) (model.Setting, error) {
	args := m.Called(ctx, key)
	s, _ := args.Get(0).(model.Setting)
	return s, args.Error(1)
}

func (m *SettingRepoMock) Upsert(ctx context.Context, key string, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *SettingRepoMock) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *SettingRepoMock) ReplaceAll(ctx context.Context, values map[string]string) error {
	return m.Called(ctx, values).Error(0)
}

// =====================
// Port mocks
// =====================

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, topic, key string, value []byte) *events.Delivery {
	m.Called(ctx, topic, key, value)
	return events.Resolved(nil)
}

func (m *PublisherMock) PublishEvent(ctx context.Context, topic string, ev model.DomainEvent) *events.Delivery {
	m.Called(ctx, topic, ev)
	return events.Resolved(nil)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) OrderCreated(ctx context.Context, order model.Order) {
	m.Called(ctx, order)
}

func (m *NotifierMock) OrderStatusChanged(ctx context.Context, order model.Order, previous model.OrderStatus) {
	m.Called(ctx, order, previous)
}

func (m *NotifierMock) PaymentSucceeded(ctx context.Context, order model.Order) {
	m.Called(ctx, order)
}

type ProcessorMock struct{ mock.Mock }

func (m *ProcessorMock) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	args := m.Called(ctx, req)
	in, _ := args.Get(0).(Intent)
	return in, args.Error(1)
}

func (m *ProcessorMock) GetIntent(ctx context.Context, id string) (Intent, error) {
	args := m.Called(ctx, id)
	in, _ := args.Get(0).(Intent)
	return in, args.Error(1)
}

type rendererStub struct {
	doc Document
	err error
}

func (r rendererStub) RenderInvoice(order model.Order, items []model.OrderItem) (Document, error) {
	return r.doc, r.err
}

// =====================
// Helpers
// =====================

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := AsHTTPError(err)
	if assert.True(t, ok, "want HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status)
	}
}
