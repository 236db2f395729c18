package cartControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/models"
	"gorm.io/gorm"
)

type CartItemInput struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// cartFor loads the user's cart, creating it lazily on first access.
func cartFor(db *gorm.DB, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// POST /user/cart
func UpsertCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			errs.JSON(c, errs.Validation("Invalid input: "+err.Error()))
			return
		}

		// Fetch product from DB
		var product models.Product
		if err := db.First(&product, "id = ?", input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errs.JSON(c, errs.NotFound("product does not exist"))
				return
			}
			errs.JSON(c, err)
			return
		}
		if product.Status != models.ProductStatusActive {
			errs.JSON(c, errs.Rule("product_inactive", "product is not available"))
			return
		}

		// Snapshot pricing/sku/attributes at add-time; variant pricing wins.
		name := product.Name
		sku := ""
		attributes := ""
		pricing := product.Pricing
		if input.VariantID != nil {
			var variant models.Variant
			err := db.Where("id = ? AND product_id = ?", *input.VariantID, product.ID).First(&variant).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					errs.JSON(c, errs.NotFound("variant does not exist"))
					return
				}
				errs.JSON(c, err)
				return
			}
			sku = variant.SKU
			attributes = variant.Attributes
			pricing = variant.Pricing
		}

		cart, err := cartFor(db, userID)
		if err != nil {
			errs.JSON(c, err)
			return
		}

		// Check if the item already exists in the cart
		var item models.CartItem
		query := db.Where("cart_id = ? AND product_id = ?", cart.CartID, input.ProductID)
		if input.VariantID != nil {
			query = query.Where("variant_id = ?", *input.VariantID)
		} else {
			query = query.Where("variant_id IS NULL")
		}
		err = query.First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				newItem := models.CartItem{
					CartID:      cart.CartID,
					ProductID:   product.ID,
					VariantID:   input.VariantID,
					ProductName: name,
					SKU:         sku,
					Attributes:  attributes,
					Pricing:     pricing,
					Quantity:    input.Quantity,
					AddedAt:     time.Now(),
				}
				if err := db.Create(&newItem).Error; err != nil {
					errs.JSON(c, err)
					return
				}
				c.JSON(http.StatusCreated, newItem)
				return
			}
			errs.JSON(c, err)
			return
		}

		// Update quantity only; the snapshot stays as captured at add-time.
		item.Quantity = input.Quantity
		item.AddedAt = time.Now()
		if err := db.Save(&item).Error; err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// DELETE /user/cart/:itemID
func DeleteCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)
		itemID := c.Param("itemID")

		cart, err := cartFor(db, userID)
		if err != nil {
			errs.JSON(c, err)
			return
		}

		result := db.Where("cart_id = ? AND id = ?", cart.CartID, itemID).Delete(&models.CartItem{})
		if result.Error != nil {
			errs.JSON(c, result.Error)
			return
		}
		if result.RowsAffected == 0 {
			errs.JSON(c, errs.NotFound("cart item not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item deleted"})
	}
}

// DELETE /user/cart
func ClearUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		cart, err := cartFor(db, userID)
		if err != nil {
			errs.JSON(c, err)
			return
		}
		if err := db.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// GET /user/cart
func GetUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userID := userIDVal.(string)

		var cart models.Cart
		if err := db.Preload("Items").Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, cart.Items)
	}
}
