package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type PromoGormRepository struct {
	db *gorm.DB
}

func NewPromoGormRepository(db *gorm.DB) *PromoGormRepository {
	return &PromoGormRepository{db: db}
}

func (r *PromoGormRepository) FindByCode(ctx context.Context, code string) (model.PromoCode, error) {
	var p model.PromoCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PromoCode{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PromoCode{}, err
	}
	return p, nil
}

// The cap check and the increment are one statement, so two concurrent
// redemptions cannot both take the last use.
func (r *PromoGormRepository) IncrementUsage(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).Model(&model.PromoCode{}).
		Where("code = ? AND current_uses < max_uses", code).
		UpdateColumn("current_uses", gorm.Expr("current_uses + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// 0件更新は「コードが無い」か「上限到達」
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.PromoCode{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return repo.ErrNotFound
	}
	return repo.ErrConditionFailed
}
