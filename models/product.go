package models

import (
	"time"

	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Pricing is the typed cost/price value object carried by products and
// variants, and copied verbatim into cart and order item snapshots.
type Pricing struct {
	SalePrice    float64 `json:"sale_price"`
	RegularPrice float64 `json:"regular_price"`
	BaseCost     float64 `json:"base_cost"`
}

type Product struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Status      ProductStatus  `gorm:"type:VARCHAR(20);default:'active'" json:"status"`
	Pricing     Pricing        `gorm:"embedded" json:"pricing"`
	Variants    []Variant      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Variant is a sellable variation of a product. Pricing on the variant
// overrides the product-level pricing when one is chosen.
type Variant struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  uint      `gorm:"index;not null" json:"product_id"`
	SKU        string    `gorm:"uniqueIndex;not null" json:"sku"`
	Attributes string    `json:"attributes"` // serialized descriptor, e.g. {"size":"M","color":"black"}
	Pricing    Pricing   `gorm:"embedded" json:"pricing"`
	CreatedAt  time.Time `json:"created_at"`
}
