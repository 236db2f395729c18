package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/orderflow-labs/storefront-api/controllers/cart"
	"github.com/orderflow-labs/storefront-api/middleware"
	"gorm.io/gorm"
)

func SetupCartRoutes(r *gin.Engine, db *gorm.DB) {
	cart := r.Group("/user/cart")
	cart.Use(middleware.ValidateToken)
	{
		cart.GET("", cartControllers.GetUserCart(db))
		cart.POST("", cartControllers.UpsertCartItem(db))
		cart.DELETE("/:itemID", cartControllers.DeleteCartItem(db))
		cart.DELETE("", cartControllers.ClearUserCart(db))
	}
}
