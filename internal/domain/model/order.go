package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "CARD"
	PaymentMethodCOD  PaymentMethod = "COD"
)

type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string          `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	UserID          int64           `gorm:"not null;index" json:"user_id"`
	OrderedAt       time.Time       `gorm:"not null;index" json:"ordered_at"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Discount        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount"`
	PromoCode       string          `gorm:"type:varchar(50)" json:"promo_code,omitempty"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// Subtotal of the captured lines minus the recorded discount.
func ReconciledTotal(items []OrderItem, discount decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum.Sub(discount)
}
