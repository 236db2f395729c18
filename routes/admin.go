package routes

import (
	"github.com/gin-gonic/gin"
	couponControllers "github.com/orderflow-labs/storefront-api/controllers/coupon"
	productcontroller "github.com/orderflow-labs/storefront-api/controllers/product"
	"github.com/orderflow-labs/storefront-api/middleware"
	"gorm.io/gorm"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires API-Key
// middleware.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey)
	{
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.POST("", productcontroller.CreateProduct(db))
			productAdmin.PUT("/:id", productcontroller.UpdateProduct(db))
			productAdmin.DELETE("/:id", productcontroller.DeleteProduct(db))
		}

		stockAdmin := adminGroup.Group("/stock")
		{
			stockAdmin.POST("/:variantID/adjust", productcontroller.AdjustStock(db))
		}

		couponAdmin := adminGroup.Group("/coupons")
		{
			couponAdmin.POST("", couponControllers.CreateCoupon(db))
			couponAdmin.GET("", couponControllers.GetAllCoupons(db))
			couponAdmin.PUT("/:id", couponControllers.UpdateCoupon(db))
			couponAdmin.DELETE("/:id", couponControllers.DeleteCoupon(db))
		}
	}
}
