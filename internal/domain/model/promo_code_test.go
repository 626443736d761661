package model_test

import (
	"testing"
	"time"

	"bookstore/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func activePromo() model.PromoCode {
	return model.PromoCode{
		Code:          "SAVE10",
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: dec("10"),
		MaxUses:       100,
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
		Active:        true,
	}
}

func TestPromoCode_InvalidReason_Order(t *testing.T) {
	p := activePromo()
	assert.Equal(t, "", p.InvalidReason(now))

	inactive := p
	inactive.Active = false
	inactive.CurrentUses = inactive.MaxUses
	assert.Equal(t, "Promo code is inactive", inactive.InvalidReason(now))

	early := p
	early.ValidFrom = now.Add(time.Hour)
	early.CurrentUses = early.MaxUses
	assert.Equal(t, "Promo code is not yet active", early.InvalidReason(now))

	expired := p
	expired.ValidUntil = now
	expired.CurrentUses = expired.MaxUses
	assert.Equal(t, "Promo code has expired", expired.InvalidReason(now))

	used := p
	used.MaxUses = 1
	used.CurrentUses = 1
	assert.Equal(t, "Promo code usage limit exceeded", used.InvalidReason(now))
}

func TestPromoCode_ValidFromIsInclusive(t *testing.T) {
	p := activePromo()
	p.ValidFrom = now
	assert.True(t, p.IsValid(now))
}

func TestPromoCode_Discount_Percentage(t *testing.T) {
	p := activePromo()
	discount, total := p.Discount(dec("25.00"))
	assert.True(t, discount.Equal(dec("2.50")), discount.String())
	assert.True(t, total.Equal(dec("22.50")), total.String())
}

func TestPromoCode_Discount_FixedAmountCappedAtTotal(t *testing.T) {
	p := activePromo()
	p.DiscountType = model.DiscountTypeFixedAmount
	p.DiscountValue = dec("30")

	discount, total := p.Discount(dec("12.00"))
	assert.True(t, discount.Equal(dec("12.00")))
	assert.True(t, total.IsZero())
}

func TestPromoCode_Discount_ClampsOverHundredPercent(t *testing.T) {
	p := activePromo()
	p.DiscountValue = dec("150")

	discount, total := p.Discount(dec("40.00"))
	assert.True(t, discount.Equal(dec("40.00")))
	assert.True(t, total.IsZero())
}

func TestPromoCode_Discount_Identity(t *testing.T) {
	totals := []string{"0.01", "1.99", "19.99", "20.00", "250.10"}
	values := []string{"0", "5", "33.33", "100", "500"}
	for _, typ := range []model.DiscountType{model.DiscountTypePercentage, model.DiscountTypeFixedAmount} {
		for _, tv := range totals {
			for _, vv := range values {
				p := activePromo()
				p.DiscountType = typ
				p.DiscountValue = dec(vv)

				cartTotal := dec(tv)
				discount, discounted := p.Discount(cartTotal)
				assert.True(t, discounted.Equal(cartTotal.Sub(discount)), "%s %s %s", typ, tv, vv)
				assert.False(t, discounted.IsNegative(), "%s %s %s", typ, tv, vv)
			}
		}
	}
}

func TestNormalizePromoCode(t *testing.T) {
	assert.Equal(t, "SAVE10", model.NormalizePromoCode("  save10 "))
}
