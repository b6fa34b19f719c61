package models

import "gorm.io/gorm"

// Order status values. Orders move pending → paid or pending → cancelled
// and are otherwise immutable once created.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"
)

// Order is created only at checkout settlement. Payload is the correlation
// id the payment collaborator echoes back; its uniqueness makes settlement
// idempotent at the storage level.
type Order struct {
	gorm.Model
	UserID      int64  `gorm:"not null;index" json:"user_id"`
	ChatID      int64  `gorm:"index" json:"chat_id"`
	BuyerName   string `gorm:"size:255" json:"buyer_name"`
	BuyerHandle string `gorm:"size:255" json:"buyer_handle"`
	Currency    string `gorm:"size:8;not null" json:"currency"`
	TotalMinor  int64  `gorm:"not null" json:"total_minor_units"`
	Payload     string `gorm:"size:64;uniqueIndex;not null" json:"payload"`
	Status      string `gorm:"size:16;not null;default:pending" json:"status"`

	Items []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem freezes title, price, quantity and photos at the time of
// purchase so later product mutations never rewrite purchase history.
type OrderItem struct {
	gorm.Model
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	Title      string    `gorm:"size:256;not null" json:"title"`
	PriceMinor int64     `gorm:"not null" json:"price_minor_units"`
	Qty        int       `gorm:"not null" json:"qty"`
	Photos     PhotoList `gorm:"type:text" json:"photos"`
}
