package orderControllers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/orderflow-labs/storefront-api/audit"
	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/models"
	"github.com/orderflow-labs/storefront-api/stock"
	"gorm.io/gorm"
)

// -------- Request Structs --------

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// -------- Helpers --------

func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch strings.ToLower(status) {
	case string(models.OrderStatusPending):
		return models.OrderStatusPending, nil
	case string(models.OrderStatusPaid):
		return models.OrderStatusPaid, nil
	case string(models.OrderStatusShipped):
		return models.OrderStatusShipped, nil
	case string(models.OrderStatusCanceled):
		return models.OrderStatusCanceled, nil
	default:
		return "", errs.Validation("invalid order status")
	}
}

func mapPaymentStatus(status string) (models.PaymentStatus, error) {
	switch strings.ToLower(status) {
	case string(models.PaymentStatusPending):
		return models.PaymentStatusPending, nil
	case string(models.PaymentStatusAuthorized):
		return models.PaymentStatusAuthorized, nil
	case string(models.PaymentStatusCaptured):
		return models.PaymentStatusCaptured, nil
	case string(models.PaymentStatusFailed):
		return models.PaymentStatusFailed, nil
	case string(models.PaymentStatusRefunded):
		return models.PaymentStatusRefunded, nil
	default:
		return "", errs.Validation("invalid payment status")
	}
}

// -------- Lifecycle policy --------

// ShouldDeduct reports whether stock must be committed for an order in the
// given state. Pure, no side effects.
func ShouldDeduct(status models.OrderStatus, payStatus models.PaymentStatus) bool {
	switch status {
	case models.OrderStatusPaid, models.OrderStatusShipped:
		return true
	}
	switch payStatus {
	case models.PaymentStatusAuthorized, models.PaymentStatusCaptured:
		return true
	}
	return false
}

// ShouldRestore reports whether a transition into nextStatus must give
// back stock that was committed under the previous state.
func ShouldRestore(prevStatus models.OrderStatus, prevPayStatus models.PaymentStatus, nextStatus models.OrderStatus) bool {
	return nextStatus == models.OrderStatusCanceled && ShouldDeduct(prevStatus, prevPayStatus)
}

func canTransitionStatus(from, to models.OrderStatus) bool {
	return from != models.OrderStatusCanceled // canceled is terminal
}

func canTransitionPayment(from, to models.PaymentStatus) bool {
	switch from {
	case models.PaymentStatusRefunded:
		return false // terminal
	case models.PaymentStatusCaptured:
		return to == models.PaymentStatusRefunded
	}
	return true
}

var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

// ApplyOrderStatus transitions the order status and fires the stock
// ledger per the policy predicates, all in one serializable transaction.
// The second return value is the pre-transition status.
func ApplyOrderStatus(db *gorm.DB, orderID uint, next models.OrderStatus) (*models.Order, models.OrderStatus, error) {
	var order models.Order
	var prev models.OrderStatus
	changed := false

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("order not found")
			}
			return err
		}

		prevStatus, prevPay := order.Status, order.PaymentStatus
		prev = prevStatus
		if next == prevStatus {
			return nil
		}
		if !canTransitionStatus(prevStatus, next) {
			return errs.Conflict("conflict", "order status is terminal")
		}

		if err := tx.Model(&order).Update("status", next).Error; err != nil {
			return err
		}
		order.Status = next
		changed = true

		if ShouldRestore(prevStatus, prevPay, next) {
			return stock.EnsureRestoredTx(tx, order.ID)
		}
		if ShouldDeduct(order.Status, order.PaymentStatus) {
			return stock.EnsureDeductedTx(tx, order.ID)
		}
		return nil
	}, serializable)
	if err != nil {
		return nil, "", err
	}

	if changed {
		broadcastOrderUpdate(order)
	}
	return &order, prev, nil
}

// ApplyPaymentStatus is the payment-side transition, fed by admin updates
// and gateway webhooks. The deduction path is idempotent, so the webhook
// and a concurrent status update cannot double-count.
func ApplyPaymentStatus(db *gorm.DB, orderID uint, next models.PaymentStatus) (*models.Order, models.PaymentStatus, error) {
	var order models.Order
	var prev models.PaymentStatus
	changed := false

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("order not found")
			}
			return err
		}

		prevPay := order.PaymentStatus
		prev = prevPay
		if next == prevPay {
			return nil
		}
		if !canTransitionPayment(prevPay, next) {
			return errs.Conflict("conflict", "payment status is terminal")
		}

		if err := tx.Model(&order).Update("payment_status", next).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Payment{}).
			Where("order_id = ?", order.ID).
			Update("status", next).Error; err != nil {
			return err
		}
		order.PaymentStatus = next
		changed = true

		if ShouldDeduct(order.Status, order.PaymentStatus) {
			return stock.EnsureDeductedTx(tx, order.ID)
		}
		return nil
	}, serializable)
	if err != nil {
		return nil, "", err
	}

	if changed {
		broadcastOrderUpdate(order)
	}
	return &order, prev, nil
}

// -------- Handlers --------

func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.
			Preload("Items").
			Preload("Payment").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userID")
		if userID == "" {
			errs.JSON(c, errs.Validation("userID is required"))
			return
		}
		var orders []models.Order
		if err := db.
			Where("user_id = ?", userID).
			Preload("Items").
			Preload("Payment").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GetOrderByIDHandler accepts a numeric id or an order ref.
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("orderID")
		if id == "" {
			errs.JSON(c, errs.Validation("orderID is required"))
			return
		}
		var order models.Order
		if err := db.
			Preload("Items").
			Preload("Payment").
			Where("id = ? OR ref = ?", id, id).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errs.JSON(c, errs.NotFound("order not found"))
				return
			}
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := parseOrderID(c.Param("orderID"))
		if err != nil {
			errs.JSON(c, err)
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errs.JSON(c, errs.Validation(err.Error()))
			return
		}
		next, err := mapOrderStatus(req.Status)
		if err != nil {
			errs.JSON(c, err)
			return
		}

		order, prev, err := ApplyOrderStatus(db, orderID, next)
		if err != nil {
			errs.JSON(c, err)
			return
		}
		audit.Record(db, audit.Entry{
			Actor:    c.GetString("user_id"),
			Action:   "order.status_update",
			Entity:   "order",
			EntityID: order.ID,
			Undo: &audit.UndoDescriptor{
				Kind:         audit.UndoStatusChange,
				StatusChange: &audit.StatusChangeUndo{Field: "status", From: string(prev), To: string(next)},
			},
		})
		c.JSON(http.StatusOK, order)
	}
}

func UpdatePaymentStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := parseOrderID(c.Param("orderID"))
		if err != nil {
			errs.JSON(c, err)
			return
		}
		var req UpdatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errs.JSON(c, errs.Validation(err.Error()))
			return
		}
		next, err := mapPaymentStatus(req.PaymentStatus)
		if err != nil {
			errs.JSON(c, err)
			return
		}

		order, prev, err := ApplyPaymentStatus(db, orderID, next)
		if err != nil {
			errs.JSON(c, err)
			return
		}
		audit.Record(db, audit.Entry{
			Actor:    c.GetString("user_id"),
			Action:   "order.payment_status_update",
			Entity:   "order",
			EntityID: order.ID,
			Undo: &audit.UndoDescriptor{
				Kind:         audit.UndoStatusChange,
				StatusChange: &audit.StatusChangeUndo{Field: "payment_status", From: string(prev), To: string(next)},
			},
		})
		c.JSON(http.StatusOK, order)
	}
}

func parseOrderID(raw string) (uint, error) {
	if raw == "" {
		return 0, errs.Validation("orderID is required")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errs.Validation("orderID must be numeric")
	}
	return uint(id), nil
}
