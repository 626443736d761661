package repository

import (
	"context"
	"errors"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

func (r *CartItemGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// Single statement upsert keyed on (cart_id, book_id).
func (r *CartItemGormRepository) AddQuantity(ctx context.Context, cartID int64, bookID int64, addQty int64) error {
	if addQty <= 0 {
		return errors.New("invalid quantity")
	}

	// 既存ありだったら数量を足す
	item := model.CartItem{CartID: cartID, BookID: bookID, Quantity: addQty}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "book_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
				"updated_at": time.Now(),
			}),
		}).
		Create(&item).Error
}

func (r *CartItemGormRepository) SetQuantity(ctx context.Context, cartID int64, bookID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartItemGormRepository) DeleteByBook(ctx context.Context, cartID int64, bookID int64) error {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartItemGormRepository) DeleteByCartID(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}
