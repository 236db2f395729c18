package audit

import (
	"encoding/json"
	"log"

	"github.com/orderflow-labs/storefront-api/models"
	"gorm.io/gorm"
)

type UndoKind string

const (
	UndoStatusChange     UndoKind = "status_change"
	UndoCouponRedemption UndoKind = "coupon_redemption"
	UndoStockAdjustment  UndoKind = "stock_adjustment"
)

// UndoDescriptor is a tagged variant: Kind selects which payload is set.
type UndoDescriptor struct {
	Kind             UndoKind              `json:"kind"`
	StatusChange     *StatusChangeUndo     `json:"status_change,omitempty"`
	CouponRedemption *CouponRedemptionUndo `json:"coupon_redemption,omitempty"`
	StockAdjustment  *StockAdjustmentUndo  `json:"stock_adjustment,omitempty"`
}

type StatusChangeUndo struct {
	Field string `json:"field"` // "status" or "payment_status"
	From  string `json:"from"`
	To    string `json:"to"`
}

type CouponRedemptionUndo struct {
	CouponID uint `json:"coupon_id"`
}

type StockAdjustmentUndo struct {
	StockItemID uint   `json:"stock_item_id"`
	Delta       int    `json:"delta"`
	Reason      string `json:"reason"`
}

type Entry struct {
	Actor    string
	Action   string
	Entity   string
	EntityID uint
	Undo     *UndoDescriptor
}

// Record writes an audit row in the background. Failures are logged and
// ignored; the audit trail must never block or roll back the mutation it
// describes.
func Record(db *gorm.DB, entry Entry) {
	go func() {
		row := models.AuditLog{
			Actor:    entry.Actor,
			Action:   entry.Action,
			Entity:   entry.Entity,
			EntityID: entry.EntityID,
		}
		if entry.Undo != nil {
			data, err := json.Marshal(entry.Undo)
			if err != nil {
				log.Printf("audit: marshal undo for %s failed: %v", entry.Action, err)
			} else {
				row.Undo = string(data)
			}
		}
		if err := db.Create(&row).Error; err != nil {
			log.Printf("audit: record %s failed: %v", entry.Action, err)
		}
	}()
}
