package stock

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // a shared in-memory database needs one connection

	require.NoError(t, db.AutoMigrate(
		&models.Order{}, &models.OrderItem{},
		&models.StockItem{}, &models.StockMovement{},
	))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, quantity, onHand int) (*models.Order, *models.StockItem) {
	t.Helper()
	variantID := uint(1)
	stockItem := models.StockItem{VariantID: variantID, OnHand: onHand}
	require.NoError(t, db.Create(&stockItem).Error)

	order := models.Order{
		Ref:           "ref-1",
		UserID:        "user-1",
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Items: []models.OrderItem{
			{ProductID: 1, VariantID: &variantID, SKU: "SKU-1", Quantity: quantity},
		},
	}
	require.NoError(t, db.Create(&order).Error)
	return &order, &stockItem
}

func movementCount(t *testing.T, db *gorm.DB, stockItemID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).
		Where("stock_item_id = ?", stockItemID).Count(&count).Error)
	return count
}

func onHand(t *testing.T, db *gorm.DB, stockItemID uint) int {
	t.Helper()
	var item models.StockItem
	require.NoError(t, db.First(&item, "id = ?", stockItemID).Error)
	return item.OnHand
}

func TestEnsureDeductedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	order, stockItem := seedOrder(t, db, 2, 5)

	for i := 0; i < 3; i++ {
		require.NoError(t, EnsureDeducted(db, order.ID))
	}

	assert.EqualValues(t, 1, movementCount(t, db, stockItem.ID))
	assert.Equal(t, 3, onHand(t, db, stockItem.ID))
}

func TestEnsureDeductedInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	order, stockItem := seedOrder(t, db, 2, 1)

	err := EnsureDeducted(db, order.ID)
	var domainErr *errs.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "insufficient_stock", domainErr.Code)

	// no movement row, counter untouched
	assert.EqualValues(t, 0, movementCount(t, db, stockItem.ID))
	assert.Equal(t, 1, onHand(t, db, stockItem.ID))
}

func TestEnsureDeductedMissingStockItem(t *testing.T) {
	db := newTestDB(t)
	variantID := uint(42)
	order := models.Order{
		Ref: "ref-2", UserID: "user-1",
		Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending,
		Items: []models.OrderItem{{ProductID: 1, VariantID: &variantID, SKU: "SKU-X", Quantity: 1}},
	}
	require.NoError(t, db.Create(&order).Error)

	err := EnsureDeducted(db, order.ID)
	var domainErr *errs.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "stock_item_missing", domainErr.Code)
}

func TestEnsureDeductedSkipsVariantlessItems(t *testing.T) {
	db := newTestDB(t)
	order := models.Order{
		Ref: "ref-3", UserID: "user-1",
		Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending,
		Items: []models.OrderItem{{ProductID: 1, SKU: "NO-VARIANT", Quantity: 2}},
	}
	require.NoError(t, db.Create(&order).Error)

	require.NoError(t, EnsureDeducted(db, order.ID))

	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestEnsureRestoredRequiresPriorDeduction(t *testing.T) {
	db := newTestDB(t)
	order, stockItem := seedOrder(t, db, 2, 5)

	// nothing deducted yet, restore is a silent no-op
	require.NoError(t, EnsureRestored(db, order.ID))
	assert.EqualValues(t, 0, movementCount(t, db, stockItem.ID))
	assert.Equal(t, 5, onHand(t, db, stockItem.ID))
}

func TestEnsureRestoredIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	order, stockItem := seedOrder(t, db, 2, 5)

	require.NoError(t, EnsureDeducted(db, order.ID))
	require.Equal(t, 3, onHand(t, db, stockItem.ID))

	require.NoError(t, EnsureRestored(db, order.ID))
	require.NoError(t, EnsureRestored(db, order.ID))

	// one deduction plus exactly one restoration
	assert.EqualValues(t, 2, movementCount(t, db, stockItem.ID))
	assert.Equal(t, 5, onHand(t, db, stockItem.ID))
}

func TestAdjustDuplicateReasonIsNoOp(t *testing.T) {
	db := newTestDB(t)
	stockItem := models.StockItem{VariantID: 7, OnHand: 0}
	require.NoError(t, db.Create(&stockItem).Error)

	require.NoError(t, Adjust(db, 7, 10, "restock:2026-08-27"))
	require.NoError(t, Adjust(db, 7, 10, "restock:2026-08-27"))

	assert.EqualValues(t, 1, movementCount(t, db, stockItem.ID))
	assert.Equal(t, 10, onHand(t, db, stockItem.ID))
}

func TestAdjustRejectsNegativeOnHand(t *testing.T) {
	db := newTestDB(t)
	stockItem := models.StockItem{VariantID: 8, OnHand: 3}
	require.NoError(t, db.Create(&stockItem).Error)

	err := Adjust(db, 8, -5, "shrinkage:1")
	var domainErr *errs.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "insufficient_stock", domainErr.Code)
	assert.Equal(t, 3, onHand(t, db, stockItem.ID))
}
