package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount DiscountType = "FIXED_AMOUNT"
)

const (
	DefaultPromoMaxUses     = 1000
	DefaultPromoDescription = "Promotional discount"
)

type PromoCode struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Description    string          `gorm:"type:varchar(255);not null" json:"description"`
	DiscountType   DiscountType    `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	MinOrderAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"min_order_amount"`
	MaxUses        int64           `gorm:"not null;default:1000" json:"max_uses"`
	CurrentUses    int64           `gorm:"not null;default:0" json:"current_uses"`
	ValidFrom      time.Time       `gorm:"not null" json:"valid_from"`
	ValidUntil     time.Time       `gorm:"not null" json:"valid_until"`
	Active         bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// InvalidReason returns "" when the code is usable at now. Only the most
// specific reason is reported.
func (p PromoCode) InvalidReason(now time.Time) string {
	switch {
	case !p.Active:
		return "Promo code is inactive"
	case now.Before(p.ValidFrom):
		return "Promo code is not yet active"
	case !now.Before(p.ValidUntil):
		return "Promo code has expired"
	case p.CurrentUses >= p.MaxUses:
		return "Promo code usage limit exceeded"
	}
	return ""
}

func (p PromoCode) IsValid(now time.Time) bool {
	return p.InvalidReason(now) == ""
}

var hundred = decimal.NewFromInt(100)

// Discount returns (discount, discountedTotal). discountedTotal never goes
// below zero; when clamped the discount equals cartTotal.
func (p PromoCode) Discount(cartTotal decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	var discount decimal.Decimal
	switch p.DiscountType {
	case DiscountTypePercentage:
		discount = cartTotal.Mul(p.DiscountValue).Div(hundred).Round(2)
	case DiscountTypeFixedAmount:
		discount = decimal.Min(p.DiscountValue, cartTotal)
	default:
		discount = decimal.Zero
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	discounted := cartTotal.Sub(discount)
	if discounted.IsNegative() {
		return cartTotal, decimal.Zero
	}
	return discount, discounted
}
