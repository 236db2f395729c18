package productcontroller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/models"
	"github.com/orderflow-labs/storefront-api/stock"
	"gorm.io/gorm"
)

type VariantInput struct {
	SKU          string         `json:"sku" binding:"required"`
	Attributes   string         `json:"attributes"`
	Pricing      models.Pricing `json:"pricing"`
	InitialStock int            `json:"initial_stock" binding:"min=0"`
}

type ProductInput struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Status      string         `json:"status" binding:"omitempty,oneof=active inactive"`
	Pricing     models.Pricing `json:"pricing"`
	Variants    []VariantInput `json:"variants"`
}

// CreateProduct creates the product, its variants, and a stock item per
// variant. Opening stock goes through the ledger so OnHand stays equal to
// the sum of movement deltas from the first row on.
func CreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			errs.JSON(c, errs.Validation(err.Error()))
			return
		}

		product := models.Product{
			Name:        input.Name,
			Description: input.Description,
			Status:      models.ProductStatusActive,
			Pricing:     input.Pricing,
		}
		if input.Status != "" {
			product.Status = models.ProductStatus(input.Status)
		}
		for _, v := range input.Variants {
			product.Variants = append(product.Variants, models.Variant{
				SKU:        v.SKU,
				Attributes: v.Attributes,
				Pricing:    v.Pricing,
			})
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&product).Error; err != nil {
				return err
			}
			for i, variant := range product.Variants {
				stockItem := models.StockItem{VariantID: variant.ID}
				if err := tx.Create(&stockItem).Error; err != nil {
					return err
				}
				if opening := input.Variants[i].InitialStock; opening > 0 {
					movement := models.StockMovement{
						StockItemID: stockItem.ID,
						Delta:       opening,
						Reason:      fmt.Sprintf("variant:%d:opening", variant.ID),
					}
					if err := tx.Create(&movement).Error; err != nil {
						return err
					}
					if err := tx.Model(&stockItem).Update("on_hand", opening).Error; err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				errs.JSON(c, errs.Conflict("conflict", "duplicate SKU"))
				return
			}
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

// GetProducts lists ACTIVE products for the storefront.
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := db.
			Where("status = ?", models.ProductStatusActive).
			Preload("Variants").
			Order("created_at DESC").
			Find(&products).Error; err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func GetProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		if err := db.Preload("Variants").First(&product, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errs.JSON(c, errs.NotFound("product not found"))
				return
			}
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func UpdateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		if err := db.First(&product, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errs.JSON(c, errs.NotFound("product not found"))
				return
			}
			errs.JSON(c, err)
			return
		}

		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			errs.JSON(c, errs.Validation(err.Error()))
			return
		}
		product.Name = input.Name
		product.Description = input.Description
		product.Pricing = input.Pricing
		if input.Status != "" {
			product.Status = models.ProductStatus(input.Status)
		}
		if err := db.Save(&product).Error; err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func DeleteProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := db.Where("id = ?", c.Param("id")).Delete(&models.Product{})
		if result.Error != nil {
			errs.JSON(c, result.Error)
			return
		}
		if result.RowsAffected == 0 {
			errs.JSON(c, errs.NotFound("product not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
	}
}

// -------- Stock administration --------

type StockAdjustInput struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AdjustStock records a manual restock or shrinkage through the ledger.
// Re-sending the same reason is a no-op, so scripts can retry safely.
func AdjustStock(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		variantID, err := strconv.ParseUint(c.Param("variantID"), 10, 64)
		if err != nil {
			errs.JSON(c, errs.Validation("variantID must be numeric"))
			return
		}
		var input StockAdjustInput
		if err := c.ShouldBindJSON(&input); err != nil {
			errs.JSON(c, errs.Validation(err.Error()))
			return
		}
		if err := stock.Adjust(db, uint(variantID), input.Delta, input.Reason); err != nil {
			errs.JSON(c, err)
			return
		}

		var stockItem models.StockItem
		if err := db.Where("variant_id = ?", variantID).First(&stockItem).Error; err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(http.StatusOK, stockItem)
	}
}
