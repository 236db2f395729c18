package checkoutControllers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orderflow-labs/storefront-api/audit"
	couponControllers "github.com/orderflow-labs/storefront-api/controllers/coupon"
	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/idempotency"
	"github.com/orderflow-labs/storefront-api/metrics"
	"github.com/orderflow-labs/storefront-api/models"
	"gorm.io/gorm"
)

type CheckoutRequest struct {
	CouponCode      string `json:"coupon_code"`
	PaymentProvider string `json:"payment_provider"`
}

func generateOrderRef() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

func defaultCurrency() string {
	if cur := os.Getenv("STORE_CURRENCY"); cur != "" {
		return cur
	}
	return "USD"
}

// Checkout converts the user's cart into an order inside one transaction:
// subtotal, optional coupon redemption, order + frozen items, pending
// payment row, cart clear. Any failure rolls the whole thing back.
func Checkout(db *gorm.DB, userID string, req CheckoutRequest) (*models.Order, error) {
	var order models.Order

	err := db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.Rule("empty_cart", "cart is empty")
			}
			return err
		}
		if len(cart.Items) == 0 {
			return errs.Rule("empty_cart", "cart is empty")
		}

		var subtotal float64
		items := make([]models.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			subtotal += item.Pricing.SalePrice * float64(item.Quantity)
			items = append(items, models.OrderItem{
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				ProductName: item.ProductName,
				SKU:         item.SKU,
				Attributes:  item.Attributes,
				Pricing:     item.Pricing,
				Quantity:    item.Quantity,
			})
		}

		var discount float64
		var couponID *uint
		var couponCode string
		if req.CouponCode != "" {
			coupon, d, err := couponControllers.Resolve(tx, req.CouponCode, subtotal)
			if err != nil {
				return err
			}
			// Guarded increment: the limit check and the counter move are a
			// single statement, so a concurrent checkout racing for the last
			// slot sees zero rows affected and fails here, rolling back the
			// whole order.
			res := tx.Model(&models.Coupon{}).
				Where("id = ? AND (max_redemptions = 0 OR redemption_count < max_redemptions)", coupon.ID).
				Update("redemption_count", gorm.Expr("redemption_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errs.Conflict("coupon_limit_reached", "coupon redemption limit reached")
			}
			discount = d
			couponID = &coupon.ID
			couponCode = coupon.Code
		}

		total := subtotal - discount
		if total < 0 {
			total = 0
		}

		order = models.Order{
			Ref:           generateOrderRef(),
			UserID:        userID,
			Items:         items,
			Currency:      defaultCurrency(),
			Subtotal:      subtotal,
			DiscountTotal: discount,
			Total:         total,
			CouponID:      couponID,
			CouponCode:    couponCode,
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusPending,
			CreatedAt:     time.Now(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		payment := models.Payment{
			OrderID:  order.ID,
			Provider: req.PaymentProvider,
			Status:   models.PaymentStatusPending,
			Amount:   total,
			Currency: order.Currency,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		order.Payment = &payment

		// Clear cart items
		return tx.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CheckoutHandler wraps Checkout in the idempotency gate: lookup before
// any mutating work, commit only after the transaction succeeded.
func CheckoutHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)
		key := c.GetHeader(idempotency.Header)

		var req CheckoutRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				errs.JSON(c, errs.Validation("invalid request body: "+err.Error()))
				return
			}
		}

		hit, hash, err := idempotency.Check(db, userID, key, req)
		if err != nil {
			errs.JSON(c, err)
			return
		}
		if hit != nil {
			c.Data(hit.Status, "application/json", hit.Body)
			return
		}

		order, err := Checkout(db, userID, req)
		if err != nil {
			metrics.CheckoutTotal.WithLabelValues(errs.CodeOf(err)).Inc()
			errs.JSON(c, err)
			return
		}
		metrics.CheckoutTotal.WithLabelValues("ok").Inc()
		if order.CouponID != nil {
			metrics.CouponRedemptions.Inc()
		}

		if err := idempotency.Commit(db, userID, key, hash, http.StatusCreated, order); err != nil {
			// The order exists; a retry on this key re-runs checkout against
			// the now-empty cart and fails cleanly, so log instead of erroring.
			log.Printf("checkout: idempotency commit failed for user %s: %v", userID, err)
		}

		entry := audit.Entry{Actor: userID, Action: "checkout", Entity: "order", EntityID: order.ID}
		if order.CouponID != nil {
			entry.Undo = &audit.UndoDescriptor{
				Kind:             audit.UndoCouponRedemption,
				CouponRedemption: &audit.CouponRedemptionUndo{CouponID: *order.CouponID},
			}
		}
		audit.Record(db, entry)

		c.JSON(http.StatusCreated, order)
	}
}
