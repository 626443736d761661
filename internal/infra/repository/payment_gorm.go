package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

// A second order for the same intent fails on the unique intent_id index.
func (r *PaymentGormRepository) Create(ctx context.Context, p *model.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *PaymentGormRepository) FindByIntentID(ctx context.Context, intentID string) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("intent_id = ?", intentID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}
