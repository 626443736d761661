package repository

import (
	"context"
	"errors"
	"strings"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type BookGormRepository struct {
	db *gorm.DB
}

func NewBookGormRepository(db *gorm.DB) *BookGormRepository {
	return &BookGormRepository{db: db}
}

func (r *BookGormRepository) FindByID(ctx context.Context, id int64) (model.Book, error) {
	var b model.Book
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Book{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Book{}, err
	}
	return b, nil
}

// Inactive books are left out; callers treat a missing key as not found.
func (r *BookGormRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Book, error) {
	out := make(map[int64]model.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var books []model.Book
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&books).Error; err != nil {
		return nil, err
	}
	for _, b := range books {
		out[b.ID] = b
	}
	return out, nil
}

func (r *BookGormRepository) List(ctx context.Context, q repo.BookListQuery) ([]model.Book, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}

	tx := r.db.WithContext(ctx).Model(&model.Book{}).Where("is_active = ?", true)
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("title ILIKE ? OR author ILIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return []model.Book{}, 0, err
	}

	var books []model.Book
	if err := tx.Order("title asc").Order("id asc").
		Limit(q.Limit).
		Offset((q.Page - 1) * q.Limit).
		Find(&books).Error; err != nil {
		return []model.Book{}, 0, err
	}
	return books, total, nil
}
