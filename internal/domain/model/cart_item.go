package model

import "time"

// One line per (cart, book). Price is read from the catalog, never stored here.
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"not null;uniqueIndex:ux_cart_items_cart_book" json:"cart_id"`
	BookID    int64     `gorm:"not null;uniqueIndex:ux_cart_items_cart_book" json:"book_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
