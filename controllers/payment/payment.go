package paymentControllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orderflow-labs/storefront-api/audit"
	orderControllers "github.com/orderflow-labs/storefront-api/controllers/order"
	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/idempotency"
	"github.com/orderflow-labs/storefront-api/models"
	"gorm.io/gorm"
)

type CreatePaymentRequest struct {
	OrderID  uint   `json:"order_id" binding:"required"`
	Provider string `json:"provider"`
	Phone    string `json:"phone"`
}

type CreatePaymentResponse struct {
	PaymentURL  string          `json:"payment_url,omitempty"`
	ExternalRef string          `json:"external_ref"`
	Payment     *models.Payment `json:"payment"`
}

// CreatePayment builds a gateway session for a pending order and stores
// the external reference on the payment row. The gateway call happens
// outside any transaction; nothing here mutates order state.
func CreatePayment(db *gorm.DB, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	var order models.Order
	if err := db.First(&order, "id = ?", req.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("order not found")
		}
		return nil, err
	}

	var payment models.Payment
	if err := db.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("payment not found for order")
		}
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, errs.Conflict("conflict", "payment is no longer pending")
	}

	provider, err := providerFor(req.Provider)
	if err != nil {
		return nil, err
	}

	url, ref, err := provider.CreateSession(&order, req.Phone)
	if err != nil {
		return nil, errs.New("gateway_error", http.StatusBadGateway, err.Error())
	}

	payment.Provider = provider.Name()
	payment.ExternalRef = ref
	payment.Phone = req.Phone
	if err := db.Save(&payment).Error; err != nil {
		return nil, err
	}

	return &CreatePaymentResponse{PaymentURL: url, ExternalRef: ref, Payment: &payment}, nil
}

// CreatePaymentHandler is idempotency-gated the same way as checkout.
func CreatePaymentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)
		key := c.GetHeader(idempotency.Header)

		var req CreatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errs.JSON(c, errs.Validation("invalid request body: "+err.Error()))
			return
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

		resp, err := CreatePayment(db, req)
		if err != nil {
			errs.JSON(c, err)
			return
		}

		if err := idempotency.Commit(db, userID, key, hash, http.StatusOK, resp); err != nil {
			log.Printf("payment: idempotency commit failed for user %s: %v", userID, err)
		}
		audit.Record(db, audit.Entry{
			Actor:    userID,
			Action:   "payment.create",
			Entity:   "payment",
			EntityID: resp.Payment.ID,
		})

		c.JSON(http.StatusOK, resp)
	}
}

// -------- Webhook --------

// mapGatewayStatus translates gateway transaction codes into payment
// statuses. "A" (authorised) and friends follow the Telr code set.
func mapGatewayStatus(tranStatus string) (models.PaymentStatus, bool) {
	switch tranStatus {
	case "A", "authorised":
		return models.PaymentStatusAuthorized, true
	case "C", "captured", "paid":
		return models.PaymentStatusCaptured, true
	case "D", "declined", "failed":
		return models.PaymentStatusFailed, true
	case "R", "refunded":
		return models.PaymentStatusRefunded, true
	default:
		return "", false
	}
}

// WebhookHandler feeds gateway confirmation events into the lifecycle
// controller. Signature verification happens in middleware.
func WebhookHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			errs.JSON(c, errs.Validation("failed to parse webhook form"))
			return
		}

		orderRef := c.PostForm("tran_cartid")
		tranRef := c.PostForm("tran_ref")
		tranStatus := c.PostForm("tran_status")
		if orderRef == "" {
			errs.JSON(c, errs.Validation("missing tran_cartid"))
			return
		}

		next, ok := mapGatewayStatus(tranStatus)
		if !ok {
			errs.JSON(c, errs.Validation("unknown tran_status: "+tranStatus))
			return
		}

		var order models.Order
		if err := db.First(&order, "ref = ?", orderRef).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errs.JSON(c, errs.NotFound("order not found for ref"))
				return
			}
			errs.JSON(c, err)
			return
		}

		if tranRef != "" {
			if err := db.Model(&models.Payment{}).
				Where("order_id = ?", order.ID).
				Update("external_ref", tranRef).Error; err != nil {
				errs.JSON(c, err)
				return
			}
		}

		updated, prev, err := orderControllers.ApplyPaymentStatus(db, order.ID, next)
		if err != nil {
			errs.JSON(c, err)
			return
		}
		audit.Record(db, audit.Entry{
			Actor:    "gateway",
			Action:   "payment.webhook",
			Entity:   "order",
			EntityID: updated.ID,
			Undo: &audit.UndoDescriptor{
				Kind:         audit.UndoStatusChange,
				StatusChange: &audit.StatusChangeUndo{Field: "payment_status", From: string(prev), To: string(next)},
			},
		})

		c.JSON(http.StatusOK, gin.H{"message": "webhook processed", "payment_status": updated.PaymentStatus})
	}
}
