package couponControllers

import (
	"testing"
	"time"

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
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Coupon{}))
	return db
}

func resolveErrCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *errs.Error
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

func TestResolvePercentage(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10, Active: true,
	}).Error)

	coupon, discount, err := Resolve(db, "save10", 100)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", coupon.Code)
	assert.InDelta(t, 10, discount, 1e-9) // 10% of 100
}

func TestResolveFixedClampedToSubtotal(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "BIG", Type: models.CouponTypeFixed, Value: 150, Active: true,
	}).Error)

	_, discount, err := Resolve(db, "BIG", 100)
	require.NoError(t, err)
	assert.InDelta(t, 100, discount, 1e-9)
}

func TestResolveNormalizesCode(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10, Active: true,
	}).Error)

	_, _, err := Resolve(db, "  save10  ", 100)
	require.NoError(t, err)
}

func TestResolveFailures(t *testing.T) {
	db := newTestDB(t)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	require.NoError(t, db.Create(&[]models.Coupon{
		{Code: "DISABLED", Type: models.CouponTypeFixed, Value: 5, Active: false},
		{Code: "EARLY", Type: models.CouponTypeFixed, Value: 5, Active: true, StartsAt: &future},
		{Code: "LATE", Type: models.CouponTypeFixed, Value: 5, Active: true, EndsAt: &past},
		{Code: "MIN50", Type: models.CouponTypeFixed, Value: 5, Active: true, MinSubtotal: 50},
		{Code: "USEDUP", Type: models.CouponTypeFixed, Value: 5, Active: true, MaxRedemptions: 1, RedemptionCount: 1},
	}).Error)

	cases := []struct {
		name     string
		code     string
		subtotal float64
		want     string
	}{
		{"unknown code", "NOPE", 100, "coupon_invalid"},
		{"disabled", "DISABLED", 100, "coupon_inactive"},
		{"not started", "EARLY", 100, "coupon_not_started"},
		{"expired", "LATE", 100, "coupon_expired"},
		{"below minimum", "MIN50", 20, "coupon_min_subtotal"},
		{"limit reached", "USEDUP", 100, "coupon_limit_reached"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Resolve(db, tc.code, tc.subtotal)
			assert.Equal(t, tc.want, resolveErrCode(t, err))
		})
	}
}

func TestResolveRejectsZeroDiscount(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "TEN", Type: models.CouponTypePercentage, Value: 10, Active: true,
	}).Error)

	// 10% of a zero subtotal clamps to zero and is rejected
	_, _, err := Resolve(db, "TEN", 0)
	assert.Equal(t, "coupon_invalid_value", resolveErrCode(t, err))
}

func TestResolveDoesNotIncrementRedemptions(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10, Active: true, MaxRedemptions: 5,
	}).Error)

	_, _, err := Resolve(db, "SAVE10", 100)
	require.NoError(t, err)

	var coupon models.Coupon
	require.NoError(t, db.First(&coupon, "code = ?", "SAVE10").Error)
	assert.Equal(t, 0, coupon.RedemptionCount)
}
