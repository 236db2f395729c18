package models

import "time"

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusShipped  OrderStatus = "shipped"
	OrderStatusCanceled OrderStatus = "canceled" // terminal

	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded" // terminal
)

// Order is immutable after creation except for Status and PaymentStatus.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Ref           string        `gorm:"uniqueIndex;not null" json:"ref"`
	UserID        string        `gorm:"index;not null" json:"user_id"`
	Items         []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Currency      string        `gorm:"type:VARCHAR(3);default:'USD'" json:"currency"`
	Subtotal      float64       `json:"subtotal"`
	DiscountTotal float64       `json:"discount_total"`
	Total         float64       `json:"total"`
	CouponID      *uint         `json:"coupon_id,omitempty"`
	CouponCode    string        `json:"coupon_code,omitempty"`
	Status        OrderStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	Payment       *Payment      `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// OrderItem is the frozen copy of a CartItem made at checkout. Never
// mutated afterward.
type OrderItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	OrderID     uint    `gorm:"index" json:"order_id"`
	ProductID   uint    `json:"product_id"`
	VariantID   *uint   `gorm:"index" json:"variant_id,omitempty"`
	ProductName string  `json:"product_name"`
	SKU         string  `json:"sku"`
	Attributes  string  `json:"attributes"`
	Pricing     Pricing `gorm:"embedded" json:"pricing"`
	Quantity    int     `json:"quantity"`
}

type Payment struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	OrderID     uint          `gorm:"uniqueIndex;not null" json:"order_id"`
	Provider    string        `json:"provider"`
	Status      PaymentStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	Amount      float64       `json:"amount"`
	Currency    string        `gorm:"type:VARCHAR(3);default:'USD'" json:"currency"`
	Phone       string        `json:"phone,omitempty"`
	ExternalRef string        `gorm:"index" json:"external_ref,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
