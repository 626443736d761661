package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitPrice is the catalog price at purchase time and is never recomputed.
type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"not null;index" json:"order_id"`
	BookID    int64           `gorm:"not null;index" json:"book_id"`
	BookTitle string          `gorm:"type:varchar(255);not null" json:"book_title"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
}
