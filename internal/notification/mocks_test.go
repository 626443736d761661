package notification

import (
	"context"

	"bookstore/internal/domain/model"
	"bookstore/internal/events"

	"github.com/stretchr/testify/mock"
)

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, topic, key string, value []byte) *events.Delivery {
	m.Called(ctx, topic, key, value)
	return events.Resolved(nil)
}

func (m *PublisherMock) PublishEvent(ctx context.Context, topic string, ev model.DomainEvent) *events.Delivery {
	m.Called(ctx, topic, ev)
	return events.Resolved(nil)
}

type PusherMock struct{ mock.Mock }

func (m *PusherMock) Broadcast(ctx context.Context, n model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *PusherMock) SendToUser(ctx context.Context, userID int64, n model.Notification) error {
	return m.Called(ctx, userID, n).Error(0)
}

type MailerMock struct{ mock.Mock }

func (m *MailerMock) Send(ctx context.Context, e Email) error {
	return m.Called(ctx, e).Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type OrderReaderMock struct{ mock.Mock }

func (m *OrderReaderMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

type ItemReaderMock struct{ mock.Mock }

func (m *ItemReaderMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type gateStub bool

func (g gateStub) NotificationsEnabled(context.Context) bool { return bool(g) }
