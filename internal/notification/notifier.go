package notification

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/events"
	"bookstore/internal/observability"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

// Gate reports whether customer notifications are switched on.
type Gate interface {
	NotificationsEnabled(ctx context.Context) bool
}

// Pusher delivers to browsers holding a notification stream.
type Pusher interface {
	Broadcast(ctx context.Context, n model.Notification) error
	SendToUser(ctx context.Context, userID int64, n model.Notification) error
}

type OrderReader interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
}

type OrderItemReader interface {
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}

type Options struct {
	// off: order-created notifications fall back to a direct email
	KafkaEnabled bool
	EmailEnabled bool
}

// Notifier is the producer side. Nothing here fails the caller: every
// problem is logged and counted.
type Notifier struct {
	publisher events.Publisher
	pusher    Pusher
	mailer    Mailer
	users     repo.UserRepository
	items     OrderItemReader
	gate      Gate
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
}

func NewNotifier(
	publisher events.Publisher,
	pusher Pusher,
	mailer Mailer,
	users repo.UserRepository,
	items OrderItemReader,
	gate Gate,
	opts Options,
	logger *zap.Logger,
) *Notifier {
	return &Notifier{
		publisher: publisher,
		pusher:    pusher,
		mailer:    mailer,
		users:     users,
		items:     items,
		gate:      gate,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

func (n *Notifier) enabled(ctx context.Context, t model.NotificationType) bool {
	if n.gate.NotificationsEnabled(ctx) {
		return true
	}
	observability.NotificationsProcessedTotal.WithLabelValues(string(t), "skipped").Inc()
	return false
}

func (n *Notifier) OrderCreated(ctx context.Context, o model.Order) {
	if !n.enabled(ctx, model.NotificationOrderCreated) {
		return
	}
	if n.opts.KafkaEnabled {
		n.publish(ctx, createdKey(o.ID), OrderCreatedNotification(o, n.now()))
		return
	}
	if n.opts.EmailEnabled {
		n.mailOrderCreated(ctx, o)
	}
}

// OrderStatusChanged pushes to the user right away and also queues the
// notification for the fanout. Both carry the same id.
func (n *Notifier) OrderStatusChanged(ctx context.Context, o model.Order, previous model.OrderStatus) {
	if !n.enabled(ctx, model.NotificationOrderStatus) {
		return
	}
	msg := StatusNotification(o, n.now())
	if err := n.pusher.SendToUser(ctx, o.UserID, msg); err != nil {
		n.logger.Warn("push status notification",
			zap.Int64("order_id", o.ID),
			zap.String("previous_status", string(previous)),
			zap.Error(err),
		)
	}
	n.publish(ctx, statusKey(o.ID), msg)
}

func (n *Notifier) PaymentSucceeded(ctx context.Context, o model.Order) {
	if !n.enabled(ctx, model.NotificationPaymentSuccess) {
		return
	}
	n.publish(ctx, paymentKey(o.ID), PaymentNotification(o, n.now()))
}

// Announce sends an admin message to everyone, or to one user when userID is
// set. Without Kafka it goes straight to the push hub.
func (n *Notifier) Announce(ctx context.Context, title, message string, userID *int64) (model.Notification, bool) {
	msg := GeneralNotification(strings.TrimSpace(title), strings.TrimSpace(message), userID, n.now())
	if !n.enabled(ctx, model.NotificationGeneral) {
		return msg, false
	}
	if n.opts.KafkaEnabled {
		n.publish(ctx, generalKey(userID), msg)
		return msg, true
	}

	var err error
	if userID != nil {
		err = n.pusher.SendToUser(ctx, *userID, msg)
	} else {
		err = n.pusher.Broadcast(ctx, msg)
	}
	if err != nil {
		n.logger.Warn("push announcement", zap.String("id", msg.ID), zap.Error(err))
		observability.NotificationsProcessedTotal.WithLabelValues(string(msg.Type), "failed").Inc()
		return msg, false
	}
	observability.NotificationsProcessedTotal.WithLabelValues(string(msg.Type), "delivered").Inc()
	return msg, true
}

func (n *Notifier) publish(ctx context.Context, key string, msg model.Notification) {
	b, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("marshal notification", zap.String("key", key), zap.Error(err))
		return
	}
	n.publisher.Publish(ctx, events.TopicNotifications, key, b)
	observability.NotificationsProcessedTotal.WithLabelValues(string(msg.Type), "queued").Inc()
}

func (n *Notifier) mailOrderCreated(ctx context.Context, o model.Order) {
	u, err := n.users.FindByID(ctx, o.UserID)
	if err != nil || u == nil {
		n.logger.Warn("order email: user lookup", zap.Int64("user_id", o.UserID), zap.Error(err))
		return
	}
	items, err := n.items.ListByOrderID(ctx, o.ID)
	if err != nil {
		n.logger.Warn("order email: items lookup", zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}

	if err := n.mailer.Send(ctx, OrderCreatedEmail(*u, o, items)); err != nil {
		n.logger.Warn("send order email", zap.Int64("order_id", o.ID), zap.Error(err))
		observability.NotificationsProcessedTotal.WithLabelValues(string(model.NotificationOrderCreated), "failed").Inc()
		return
	}
	observability.NotificationsProcessedTotal.WithLabelValues(string(model.NotificationOrderCreated), "emailed").Inc()
}
