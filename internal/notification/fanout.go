package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"bookstore/internal/domain/model"
	"bookstore/internal/events"
	"bookstore/internal/observability"
	repo "bookstore/internal/repository"

	"go.uber.org/zap"
)

// Fanout consumes notifications.events and delivers each record to the
// general channel, the owner's channel and, if enabled, the owner's inbox.
type Fanout struct {
	pusher       Pusher
	mailer       Mailer
	users        repo.UserRepository
	orders       OrderReader
	items        OrderItemReader
	emailEnabled bool
	logger       *zap.Logger

	// ids broadcast by an attempt whose user push failed
	mu          sync.Mutex
	broadcasted map[string]struct{}
	pendingIDs  []string
}

const maxPendingBroadcasts = 1024

func NewFanout(
	pusher Pusher,
	mailer Mailer,
	users repo.UserRepository,
	orders OrderReader,
	items OrderItemReader,
	emailEnabled bool,
	logger *zap.Logger,
) *Fanout {
	return &Fanout{
		pusher:       pusher,
		mailer:       mailer,
		users:        users,
		orders:       orders,
		items:        items,
		emailEnabled: emailEnabled,
		logger:       logger,
		broadcasted:  make(map[string]struct{}),
	}
}

// HandleMessage returns push errors for retry. A retry skips the broadcast
// when an earlier attempt already made it. Email failures are only logged,
// a retry would push the notification twice.
func (f *Fanout) HandleMessage(ctx context.Context, key string, value []byte) error {
	var n model.Notification
	if err := json.Unmarshal(value, &n); err != nil {
		observability.NotificationsProcessedTotal.WithLabelValues("unknown", "failed").Inc()
		return fmt.Errorf("decode notification %q: %w: %w", key, events.ErrPermanent, err)
	}
	if n.Type == "" || n.Title == "" {
		observability.NotificationsProcessedTotal.WithLabelValues("unknown", "failed").Inc()
		return fmt.Errorf("notification %q has no type or title: %w", key, events.ErrPermanent)
	}

	if !f.wasBroadcast(n.ID) {
		if err := f.pusher.Broadcast(ctx, n); err != nil {
			observability.NotificationsProcessedTotal.WithLabelValues(string(n.Type), "failed").Inc()
			return fmt.Errorf("broadcast %s: %w", n.ID, err)
		}
	}
	if n.UserID != nil {
		if err := f.pusher.SendToUser(ctx, *n.UserID, n); err != nil {
			f.markBroadcast(n.ID)
			observability.NotificationsProcessedTotal.WithLabelValues(string(n.Type), "failed").Inc()
			return fmt.Errorf("push %s to user %d: %w", n.ID, *n.UserID, err)
		}
		f.forgetBroadcast(n.ID)
		if f.emailEnabled {
			f.email(ctx, n)
		}
	}

	observability.NotificationsProcessedTotal.WithLabelValues(string(n.Type), "delivered").Inc()
	f.logger.Debug("notification delivered", zap.String("key", key), zap.String("id", n.ID), zap.String("type", string(n.Type)))
	return nil
}

func (f *Fanout) wasBroadcast(id string) bool {
	if id == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.broadcasted[id]
	return ok
}

// oldest ids are dropped past maxPendingBroadcasts
func (f *Fanout) markBroadcast(id string) {
	if id == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.broadcasted[id]; ok {
		return
	}
	if len(f.pendingIDs) >= maxPendingBroadcasts {
		delete(f.broadcasted, f.pendingIDs[0])
		f.pendingIDs = f.pendingIDs[1:]
	}
	f.broadcasted[id] = struct{}{}
	f.pendingIDs = append(f.pendingIDs, id)
}

func (f *Fanout) forgetBroadcast(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.broadcasted[id]; !ok {
		return
	}
	delete(f.broadcasted, id)
	for i, v := range f.pendingIDs {
		if v == id {
			f.pendingIDs = append(f.pendingIDs[:i], f.pendingIDs[i+1:]...)
			break
		}
	}
}

func (f *Fanout) email(ctx context.Context, n model.Notification) {
	u, err := f.users.FindByID(ctx, *n.UserID)
	if err != nil {
		f.logger.Warn("notification email: user lookup", zap.Int64("user_id", *n.UserID), zap.Error(err))
		return
	}
	if u == nil || u.Email == "" {
		return
	}

	var e Email
	switch {
	case n.Type == model.NotificationOrderCreated && n.OrderID != nil:
		o, err := f.orders.FindByID(ctx, *n.OrderID)
		if err != nil {
			f.logger.Warn("notification email: order lookup", zap.Int64("order_id", *n.OrderID), zap.Error(err))
			return
		}
		items, err := f.items.ListByOrderID(ctx, o.ID)
		if err != nil {
			f.logger.Warn("notification email: items lookup", zap.Int64("order_id", o.ID), zap.Error(err))
			return
		}
		e = OrderCreatedEmail(*u, o, items)
	case n.Type == model.NotificationOrderStatus && n.OrderID != nil:
		o, err := f.orders.FindByID(ctx, *n.OrderID)
		if err != nil {
			f.logger.Warn("notification email: order lookup", zap.Int64("order_id", *n.OrderID), zap.Error(err))
			return
		}
		// the order may have moved on since this record was produced
		if st := n.Metadata["status"]; st != "" {
			o.Status = model.OrderStatus(st)
		}
		e = StatusEmail(*u, o)
	default:
		e = GenericEmail(*u, n)
	}

	if err := f.mailer.Send(ctx, e); err != nil {
		f.logger.Warn("send notification email", zap.String("id", n.ID), zap.Error(err))
		observability.NotificationsProcessedTotal.WithLabelValues(string(n.Type), "email_failed").Inc()
		return
	}
	observability.NotificationsProcessedTotal.WithLabelValues(string(n.Type), "emailed").Inc()
}
