package repository

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, ev *model.OutboxEvent) error
	// pending rows whose next_attempt has passed, oldest first
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.OutboxEvent, error)
	MarkSent(ctx context.Context, id int64) error
	MarkRetry(ctx context.Context, id int64, attempts int, lastErr string, next time.Time) error
	MarkDead(ctx context.Context, id int64, attempts int, lastErr string) error
}
