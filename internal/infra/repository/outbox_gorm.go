package repository

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type OutboxGormRepository struct {
	db *gorm.DB
}

func NewOutboxGormRepository(db *gorm.DB) *OutboxGormRepository {
	return &OutboxGormRepository{db: db}
}

func (r *OutboxGormRepository) Enqueue(ctx context.Context, ev *model.OutboxEvent) error {
	if ev.Status == "" {
		ev.Status = model.OutboxStatusPending
	}
	if ev.NextAttempt.IsZero() {
		ev.NextAttempt = time.Now()
	}
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *OutboxGormRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.OutboxEvent, error) {
	//再送時刻を過ぎたPENDINGだけ、古い順
	var items []model.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt <= ?", model.OutboxStatusPending, now).
		Order("id asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.OutboxEvent{}, err
	}
	return items, nil
}

func (r *OutboxGormRepository) MarkSent(ctx context.Context, id int64) error {
	return r.update(ctx, id, map[string]interface{}{
		"status": model.OutboxStatusSent,
	})
}

func (r *OutboxGormRepository) MarkRetry(ctx context.Context, id int64, attempts int, lastErr string, next time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"attempts":     attempts,
		"last_error":   lastErr,
		"next_attempt": next,
	})
}

func (r *OutboxGormRepository) MarkDead(ctx context.Context, id int64, attempts int, lastErr string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":     model.OutboxStatusDead,
		"attempts":   attempts,
		"last_error": lastErr,
	})
}

func (r *OutboxGormRepository) update(ctx context.Context, id int64, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
