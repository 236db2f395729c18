package models

import (
	"strings"
	"time"
)

type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

type Coupon struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Code            string     `gorm:"uniqueIndex;not null" json:"code"` // canonical form, see NormalizeCouponCode
	Type            CouponType `gorm:"type:VARCHAR(20);not null" json:"type"`
	Value           float64    `gorm:"not null" json:"value"`
	Active          bool       `gorm:"default:true" json:"active"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	MinSubtotal     float64    `json:"min_subtotal"`
	MaxRedemptions  int        `json:"max_redemptions"` // 0 = unlimited
	RedemptionCount int        `json:"redemption_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NormalizeCouponCode maps user input to the canonical stored form.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
