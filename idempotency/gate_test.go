package idempotency

import (
	"net/http"
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

	require.NoError(t, db.AutoMigrate(&models.IdempotencyRecord{}))
	return db
}

type fakeBody struct {
	CouponCode string `json:"coupon_code"`
}

func TestCheckMissThenHit(t *testing.T) {
	db := newTestDB(t)
	body := fakeBody{CouponCode: "SAVE10"}

	hit, hash, err := Check(db, "user-1", "key-1", body)
	require.NoError(t, err)
	assert.Nil(t, hit)
	assert.NotEmpty(t, hash)

	require.NoError(t, Commit(db, "user-1", "key-1", hash, http.StatusCreated, map[string]any{"order_id": 7}))

	hit, _, err = Check(db, "user-1", "key-1", body)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, http.StatusCreated, hit.Status)
	assert.JSONEq(t, `{"order_id":7}`, string(hit.Body))
}

func TestCheckConflictOnDifferentBody(t *testing.T) {
	db := newTestDB(t)

	_, hash, err := Check(db, "user-1", "key-1", fakeBody{CouponCode: "SAVE10"})
	require.NoError(t, err)
	require.NoError(t, Commit(db, "user-1", "key-1", hash, http.StatusCreated, map[string]any{"order_id": 7}))

	_, _, err = Check(db, "user-1", "key-1", fakeBody{CouponCode: "OTHER"})
	var domainErr *errs.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "idempotency_key_reuse", domainErr.Code)
}

func TestCheckScopedPerUser(t *testing.T) {
	db := newTestDB(t)
	body := fakeBody{CouponCode: "SAVE10"}

	_, hash, err := Check(db, "user-1", "key-1", body)
	require.NoError(t, err)
	require.NoError(t, Commit(db, "user-1", "key-1", hash, http.StatusCreated, map[string]any{"order_id": 7}))

	// same key, different user: a miss, not a hit
	hit, _, err := Check(db, "user-2", "key-1", body)
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestExpiredRecordCountsAsAbsent(t *testing.T) {
	db := newTestDB(t)
	body := fakeBody{CouponCode: "SAVE10"}

	hash, err := HashRequest(body)
	require.NoError(t, err)
	rec := models.IdempotencyRecord{
		UserID:      "user-1",
		Key:         "key-1",
		RequestHash: hash,
		Status:      http.StatusCreated,
		Response:    `{"order_id":7}`,
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&rec).Error)

	hit, _, err := Check(db, "user-1", "key-1", body)
	require.NoError(t, err)
	assert.Nil(t, hit)

	var count int64
	require.NoError(t, db.Model(&models.IdempotencyRecord{}).Count(&count).Error)
	assert.EqualValues(t, 0, count) // stale record was pruned
}

func TestHashIsStable(t *testing.T) {
	h1, err := HashRequest(fakeBody{CouponCode: "SAVE10"})
	require.NoError(t, err)
	h2, err := HashRequest(fakeBody{CouponCode: "SAVE10"})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := HashRequest(fakeBody{CouponCode: "OTHER"})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
