package models

import "time"

type Cart struct {
	CartID    uint       `gorm:"primaryKey" json:"cart_id"`
	UserID    string     `gorm:"uniqueIndex" json:"user_id"` // Enforces ONE cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem carries a snapshot of the product/variant taken at add-time so
// later catalog edits never change what the customer put in the cart.
type CartItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CartID      uint      `gorm:"index" json:"cart_id"`
	ProductID   uint      `json:"product_id"`
	VariantID   *uint     `gorm:"index" json:"variant_id,omitempty"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	Attributes  string    `json:"attributes"`
	Pricing     Pricing   `gorm:"embedded" json:"pricing"`
	Quantity    int       `json:"quantity"`
	AddedAt     time.Time `json:"added_at"`
}
