package checkoutControllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/idempotency"
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

	require.NoError(t, db.AutoMigrate(
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{}, &models.Payment{},
		&models.Coupon{}, &models.IdempotencyRecord{}, &models.AuditLog{},
	))
	return db
}

// seedCart puts two line items worth 100 total into user-1's cart.
func seedCart(t *testing.T, db *gorm.DB) *models.Cart {
	t.Helper()
	variantID := uint(1)
	cart := models.Cart{
		UserID: "user-1",
		Items: []models.CartItem{
			{ProductID: 1, VariantID: &variantID, ProductName: "Shirt", SKU: "SHIRT-M",
				Pricing: models.Pricing{SalePrice: 30}, Quantity: 2},
			{ProductID: 2, ProductName: "Mug",
				Pricing: models.Pricing{SalePrice: 40}, Quantity: 1},
		},
	}
	require.NoError(t, db.Create(&cart).Error)
	return &cart
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := newTestDB(t)

	_, err := Checkout(db, "user-1", CheckoutRequest{})
	var domainErr *errs.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "empty_cart", domainErr.Code)
}

func TestCheckoutFreezesCartIntoOrder(t *testing.T) {
	db := newTestDB(t)
	cart := seedCart(t, db)

	order, err := Checkout(db, "user-1", CheckoutRequest{})
	require.NoError(t, err)

	assert.InDelta(t, 100, order.Subtotal, 1e-9)
	assert.InDelta(t, 0, order.DiscountTotal, 1e-9)
	assert.InDelta(t, 100, order.Total, 1e-9)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "SHIRT-M", order.Items[0].SKU)

	// payment row is created pending, one-to-one with the order
	var payment models.Payment
	require.NoError(t, db.First(&payment, "order_id = ?", order.ID).Error)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.InDelta(t, 100, payment.Amount, 1e-9)

	// the cart is emptied in the same transaction
	var remaining int64
	require.NoError(t, db.Model(&models.CartItem{}).
		Where("cart_id = ?", cart.CartID).Count(&remaining).Error)
	assert.EqualValues(t, 0, remaining)
}

func TestCheckoutPercentageCoupon(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10, Active: true,
	}).Error)

	order, err := Checkout(db, "user-1", CheckoutRequest{CouponCode: "save10"})
	require.NoError(t, err)

	assert.InDelta(t, 10, order.DiscountTotal, 1e-9)
	assert.InDelta(t, 90, order.Total, 1e-9)
	assert.Equal(t, "SAVE10", order.CouponCode)

	var coupon models.Coupon
	require.NoError(t, db.First(&coupon, "code = ?", "SAVE10").Error)
	assert.Equal(t, 1, coupon.RedemptionCount)
}

func TestCheckoutFixedCouponClampsToSubtotal(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "BIG", Type: models.CouponTypeFixed, Value: 150, Active: true,
	}).Error)

	order, err := Checkout(db, "user-1", CheckoutRequest{CouponCode: "BIG"})
	require.NoError(t, err)

	assert.InDelta(t, 100, order.DiscountTotal, 1e-9)
	assert.InDelta(t, 0, order.Total, 1e-9)
}

func TestCheckoutFailedCouponRollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	cart := seedCart(t, db)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "USEDUP", Type: models.CouponTypeFixed, Value: 5, Active: true,
		MaxRedemptions: 1, RedemptionCount: 1,
	}).Error)

	_, err := Checkout(db, "user-1", CheckoutRequest{CouponCode: "USEDUP"})
	var domainErr *errs.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "coupon_limit_reached", domainErr.Code)

	// no order, cart untouched, counter unchanged
	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.EqualValues(t, 0, orders)

	var items int64
	require.NoError(t, db.Model(&models.CartItem{}).
		Where("cart_id = ?", cart.CartID).Count(&items).Error)
	assert.EqualValues(t, 2, items)

	var coupon models.Coupon
	require.NoError(t, db.First(&coupon, "code = ?", "USEDUP").Error)
	assert.Equal(t, 1, coupon.RedemptionCount)
}

// -------- Handler-level idempotency properties --------

func newCheckoutRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/checkout",
		func(c *gin.Context) { c.Set("user_id", "user-1") },
		CheckoutHandler(db),
	)
	return r
}

func doCheckout(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotency.Header, key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckoutReplayReturnsStoredResponse(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	r := newCheckoutRouter(db)

	first := doCheckout(r, "key-1", `{}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := doCheckout(r, "key-1", `{}`)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// exactly one order exists
	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)
}

func TestCheckoutSameKeyDifferentBodyConflicts(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10, Active: true,
	}).Error)
	r := newCheckoutRouter(db)

	first := doCheckout(r, "key-1", `{}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := doCheckout(r, "key-1", `{"coupon_code":"SAVE10"}`)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "idempotency_key_reuse")

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)
}
