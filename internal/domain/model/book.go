package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Read-only view of the catalog. Catalog CRUD lives outside this service.
type Book struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Author    string          `gorm:"type:varchar(255)" json:"author"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
