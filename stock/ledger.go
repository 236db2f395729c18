package stock

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/metrics"
	"github.com/orderflow-labs/storefront-api/models"
	"gorm.io/gorm"
)

// Reason tags are deterministic per (order, item) pair. Together with the
// unique (stock_item_id, reason) index they make every ledger operation
// apply at most once per order item.

func DeductReason(orderID, orderItemID uint) string {
	return fmt.Sprintf("order:%d:item:%d:deduct", orderID, orderItemID)
}

func RestoreReason(orderID, orderItemID uint) string {
	return fmt.Sprintf("order:%d:item:%d:restore", orderID, orderItemID)
}

var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

// EnsureDeducted deducts stock for every variant-bound item of the order,
// exactly once per item no matter how many times it is called. Runs in its
// own serializable transaction.
func EnsureDeducted(db *gorm.DB, orderID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return EnsureDeductedTx(tx, orderID)
	}, serializable)
}

// EnsureDeductedTx is EnsureDeducted inside an existing transaction, for
// callers that already hold a serializable scope (lifecycle transitions).
func EnsureDeductedTx(tx *gorm.DB, orderID uint) error {
	items, err := orderItems(tx, orderID)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.VariantID == nil || item.Quantity <= 0 {
			continue
		}

		stockItem, err := findStockItem(tx, *item.VariantID)
		if err != nil {
			return err
		}

		reason := DeductReason(orderID, item.ID)
		applied, err := movementExists(tx, stockItem.ID, reason)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		if stockItem.OnHand < item.Quantity {
			return errs.Conflict("insufficient_stock",
				fmt.Sprintf("insufficient stock for %s: have %d, need %d", item.SKU, stockItem.OnHand, item.Quantity))
		}

		if err := applyMovement(tx, stockItem.ID, -item.Quantity, reason); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue // a concurrent caller already applied it
			}
			return err
		}
		metrics.StockMovements.WithLabelValues("deduct").Inc()
	}
	return nil
}

// EnsureRestored gives back stock for items whose deduction already
// happened and has not been restored yet. Items never deducted are
// silently skipped.
func EnsureRestored(db *gorm.DB, orderID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return EnsureRestoredTx(tx, orderID)
	}, serializable)
}

func EnsureRestoredTx(tx *gorm.DB, orderID uint) error {
	items, err := orderItems(tx, orderID)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.VariantID == nil || item.Quantity <= 0 {
			continue
		}

		stockItem, err := findStockItem(tx, *item.VariantID)
		if err != nil {
			return err
		}

		deducted, err := movementExists(tx, stockItem.ID, DeductReason(orderID, item.ID))
		if err != nil {
			return err
		}
		if !deducted {
			continue // nothing to restore
		}

		reason := RestoreReason(orderID, item.ID)
		restored, err := movementExists(tx, stockItem.ID, reason)
		if err != nil {
			return err
		}
		if restored {
			continue
		}

		if err := applyMovement(tx, stockItem.ID, item.Quantity, reason); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return err
		}
		metrics.StockMovements.WithLabelValues("restore").Inc()
	}
	return nil
}

// Adjust records a manual inventory change (restock, shrinkage). The
// caller supplies the reason tag; repeating a tag is a no-op thanks to the
// ledger uniqueness, which makes restock scripts safe to re-run.
func Adjust(db *gorm.DB, variantID uint, delta int, reason string) error {
	if delta == 0 {
		return errs.Validation("delta must be non-zero")
	}
	if reason == "" {
		return errs.Validation("reason is required")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		stockItem, err := findStockItem(tx, variantID)
		if err != nil {
			return err
		}
		if stockItem.OnHand+delta < 0 {
			return errs.Conflict("insufficient_stock",
				fmt.Sprintf("adjustment would drive on-hand below zero (have %d, delta %d)", stockItem.OnHand, delta))
		}
		if err := applyMovement(tx, stockItem.ID, delta, reason); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil // already applied
			}
			return err
		}
		metrics.StockMovements.WithLabelValues("adjust").Inc()
		return nil
	}, serializable)
}

// -------- internals --------

func orderItems(tx *gorm.DB, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		var count int64
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, errs.NotFound("order not found")
		}
	}
	return items, nil
}

// No explicit row lock: the serializable transaction plus the
// (stock_item_id, reason) uniqueness carry the concurrency guarantees.
func findStockItem(tx *gorm.DB, variantID uint) (*models.StockItem, error) {
	var stockItem models.StockItem
	err := tx.Where("variant_id = ?", variantID).
		First(&stockItem).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Internal("stock_item_missing",
				fmt.Sprintf("no stock record for variant %d", variantID))
		}
		return nil, err
	}
	return &stockItem, nil
}

func movementExists(tx *gorm.DB, stockItemID uint, reason string) (bool, error) {
	var count int64
	err := tx.Model(&models.StockMovement{}).
		Where("stock_item_id = ? AND reason = ?", stockItemID, reason).
		Count(&count).Error
	return count > 0, err
}

// applyMovement inserts the ledger row and moves the materialized counter
// in the same transaction, keeping OnHand equal to the sum of deltas.
func applyMovement(tx *gorm.DB, stockItemID uint, delta int, reason string) error {
	movement := models.StockMovement{StockItemID: stockItemID, Delta: delta, Reason: reason}
	if err := tx.Create(&movement).Error; err != nil {
		return err
	}
	return tx.Model(&models.StockItem{}).
		Where("id = ?", stockItemID).
		Update("on_hand", gorm.Expr("on_hand + ?", delta)).Error
}
