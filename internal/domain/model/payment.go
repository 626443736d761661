package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	// captured by the processor, but the order it paid for was never created
	PaymentStatusOrphaned PaymentStatus = "orphaned"
)

// Written only after the processor confirmed the intent. OrderID is nil for
// orphaned captures awaiting refund.
type Payment struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   *int64          `gorm:"index" json:"order_id"`
	IntentID  string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"intent_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency  string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status    PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
