package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes is the single entry-point that wires up all route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	// Public storefront routes
	SetupProductRoutes(r, db)

	// User routes (JWT-protected)
	SetupCartRoutes(r, db)
	SetupCheckoutRoutes(r, db)
	SetupPaymentRoutes(r, db)

	// Order routes (admin + websocket)
	SetupOrderRoutes(r, db)

	// Admin routes (API-Key-protected)
	SetupAdminRoutes(r, db)
}
