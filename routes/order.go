package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/orderflow-labs/storefront-api/controllers/order"
	"github.com/orderflow-labs/storefront-api/middleware"
	"gorm.io/gorm"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB) {
	orders := r.Group("/orders")
	{
		// websocket endpoint for real-time order updates
		orders.GET("/ws", orderControllers.OrderWebSocketHandler)

		admin := orders.Group("")
		admin.Use(middleware.ValidateAPIKey)
		{
			// Fetch all orders (admin)
			admin.GET("", orderControllers.GetAllOrdersHandler(db))

			// Order report download
			admin.GET("/export-excel", orderControllers.ExportOrdersToExcel(db))

			// Fetch orders for a specific user
			admin.GET("/user/:userID", orderControllers.GetUserOrdersHandler(db))

			// Fetch a single order by id or ref
			admin.GET("/:orderID", orderControllers.GetOrderByIDHandler(db))

			// Lifecycle transitions (e.g. shipped, canceled)
			admin.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(db))
			admin.PUT("/:orderID/payment-status", orderControllers.UpdatePaymentStatusHandler(db))
		}
	}
}
