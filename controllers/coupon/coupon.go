package couponControllers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/models"
	"gorm.io/gorm"
)

// Resolve validates a code against a subtotal and computes the discount.
// It never touches RedemptionCount; the increment happens only inside the
// checkout transaction, so abandoned checkouts consume no redemption slot.
func Resolve(tx *gorm.DB, code string, subtotal float64) (*models.Coupon, float64, error) {
	var coupon models.Coupon
	err := tx.Where("code = ?", models.NormalizeCouponCode(code)).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, errs.Rule("coupon_invalid", "coupon not found")
		}
		return nil, 0, err
	}

	now := time.Now()
	switch {
	case !coupon.Active:
		return nil, 0, errs.Rule("coupon_inactive", "coupon is disabled")
	case coupon.StartsAt != nil && now.Before(*coupon.StartsAt):
		return nil, 0, errs.Rule("coupon_not_started", "coupon is not valid yet")
	case coupon.EndsAt != nil && now.After(*coupon.EndsAt):
		return nil, 0, errs.Rule("coupon_expired", "coupon has expired")
	case subtotal < coupon.MinSubtotal:
		return nil, 0, errs.Rule("coupon_min_subtotal", "subtotal is below the coupon minimum")
	case coupon.MaxRedemptions > 0 && coupon.RedemptionCount >= coupon.MaxRedemptions:
		return nil, 0, errs.Rule("coupon_limit_reached", "coupon redemption limit reached")
	}

	var discount float64
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = subtotal * coupon.Value / 100
	case models.CouponTypeFixed:
		discount = coupon.Value
	default:
		return nil, 0, errs.Rule("coupon_invalid", "unknown coupon type")
	}

	if math.IsNaN(discount) || math.IsInf(discount, 0) {
		return nil, 0, errs.Rule("coupon_invalid_value", "computed discount is not a finite number")
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount == 0 {
		return nil, 0, errs.Rule("coupon_invalid_value", "computed discount is zero")
	}
	return &coupon, discount, nil
}

// -------- Admin handlers --------

type CouponInput struct {
	Code           string     `json:"code" binding:"required"`
	Type           string     `json:"type" binding:"required,oneof=percentage fixed"`
	Value          float64    `json:"value" binding:"required,gt=0"`
	Active         *bool      `json:"active"`
	StartsAt       *time.Time `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at"`
	MinSubtotal    float64    `json:"min_subtotal"`
	MaxRedemptions int        `json:"max_redemptions"`
}

func CreateCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CouponInput
		if err := c.ShouldBindJSON(&input); err != nil {
			errs.JSON(c, errs.Validation(err.Error()))
			return
		}
		coupon := models.Coupon{
			Code:           models.NormalizeCouponCode(input.Code),
			Type:           models.CouponType(input.Type),
			Value:          input.Value,
			Active:         true,
			StartsAt:       input.StartsAt,
			EndsAt:         input.EndsAt,
			MinSubtotal:    input.MinSubtotal,
			MaxRedemptions: input.MaxRedemptions,
		}
		if input.Active != nil {
			coupon.Active = *input.Active
		}
		if err := db.Create(&coupon).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				errs.JSON(c, errs.Conflict("conflict", "coupon code already exists"))
				return
			}
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusCreated, coupon)
	}
}

func GetAllCoupons(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var coupons []models.Coupon
		if err := db.Order("created_at DESC").Find(&coupons).Error; err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, coupons)
	}
}

func UpdateCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var coupon models.Coupon
		if err := db.First(&coupon, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errs.JSON(c, errs.NotFound("coupon not found"))
				return
			}
			errs.JSON(c, err)
			return
		}

		// RedemptionCount is owned by checkout and never set here.
		var input CouponInput
		if err := c.ShouldBindJSON(&input); err != nil {
			errs.JSON(c, errs.Validation(err.Error()))
			return
		}
		coupon.Code = models.NormalizeCouponCode(input.Code)
		coupon.Type = models.CouponType(input.Type)
		coupon.Value = input.Value
		coupon.StartsAt = input.StartsAt
		coupon.EndsAt = input.EndsAt
		coupon.MinSubtotal = input.MinSubtotal
		coupon.MaxRedemptions = input.MaxRedemptions
		if input.Active != nil {
			coupon.Active = *input.Active
		}
		if err := db.Save(&coupon).Error; err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, coupon)
	}
}

func DeleteCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := db.Where("id = ?", c.Param("id")).Delete(&models.Coupon{})
		if result.Error != nil {
			errs.JSON(c, result.Error)
			return
		}
		if result.RowsAffected == 0 {
			errs.JSON(c, errs.NotFound("coupon not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted"})
	}
}
