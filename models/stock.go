package models

import "time"

// StockItem materializes the on-hand count for one variant. OnHand must
// always equal the sum of the associated StockMovement deltas.
type StockItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VariantID uint      `gorm:"uniqueIndex;not null" json:"variant_id"`
	OnHand    int       `gorm:"not null;default:0" json:"on_hand"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockMovement is an append-only ledger row. The unique index on
// (stock_item_id, reason) makes a duplicate insert fail at the store, so
// concurrent callers cannot double-apply the same movement.
type StockMovement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StockItemID uint      `gorm:"not null;uniqueIndex:idx_stock_movement_reason" json:"stock_item_id"`
	Delta       int       `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"not null;uniqueIndex:idx_stock_movement_reason" json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}
