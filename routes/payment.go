package routes

import (
	"github.com/gin-gonic/gin"
	paymentControllers "github.com/orderflow-labs/storefront-api/controllers/payment"
	"github.com/orderflow-labs/storefront-api/middleware"
	"gorm.io/gorm"
)

func SetupPaymentRoutes(r *gin.Engine, db *gorm.DB) {
	payment := r.Group("/payment")
	{
		// Payment session creation, idempotency-gated like checkout
		payment.POST("/create",
			middleware.ValidateToken,
			middleware.RequireIdempotencyKey,
			paymentControllers.CreatePaymentHandler(db),
		)

		// Webhook endpoint: middleware handles sandbox/prod verification
		payment.POST("/webhook",
			middleware.WebhookAuth(),
			paymentControllers.WebhookHandler(db),
		)
	}
}
