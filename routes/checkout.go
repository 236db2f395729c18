package routes

import (
	"github.com/gin-gonic/gin"
	checkoutControllers "github.com/orderflow-labs/storefront-api/controllers/checkout"
	"github.com/orderflow-labs/storefront-api/middleware"
	"gorm.io/gorm"
)

func SetupCheckoutRoutes(r *gin.Engine, db *gorm.DB) {
	// Checkout is a mutating retryable operation: the Idempotency-Key
	// header is mandatory.
	r.POST("/checkout",
		middleware.ValidateToken,
		middleware.RequireIdempotencyKey,
		checkoutControllers.CheckoutHandler(db),
	)
}
