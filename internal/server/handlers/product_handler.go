package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cigamsync/internal/database/models"
)

type ProductHandler struct {
	db *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		fail(c, http.StatusUnprocessableEntity, "Product reference is required")
		return
	}

	var product models.Product
	err := h.db.Preload("Variants").Where("reference = ?", reference).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to get product: "+err.Error())
		return
	}

	success(c, product)
}

type updateProductRequest struct {
	Description  *string `json:"description"`
	CategoryCode *string `json:"category_code"`
	SalePrice    *string `json:"sale_price"`
	CostPrice    *string `json:"cost_price"`
	IsActive     *bool   `json:"is_active"`
}

// UpdateProduct is the manual-edit path. Every manual edit sets the
// sync lock so the next automatic sync cannot clobber the correction.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	reference := c.Param("reference")

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}

	var product models.Product
	err := h.db.Where("reference = ?", reference).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to get product: "+err.Error())
		return
	}

	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.CategoryCode != nil {
		product.CategoryCode = *req.CategoryCode
	}
	if req.SalePrice != nil {
		product.SalePrice = *req.SalePrice
	}
	if req.CostPrice != nil {
		product.CostPrice = *req.CostPrice
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.SyncLocked = true

	if err := h.db.Save(&product).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update product: "+err.Error())
		return
	}

	success(c, product)
}

// UnlockProduct clears the sync lock so the next sync may overwrite the
// product again.
func (h *ProductHandler) UnlockProduct(c *gin.Context) {
	reference := c.Param("reference")

	res := h.db.Model(&models.Product{}).
		Where("reference = ?", reference).
		Update("sync_locked", false)
	if res.Error != nil {
		fail(c, http.StatusInternalServerError, "Failed to unlock product: "+res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}

	success(c, gin.H{"reference": reference, "sync_locked": false})
}
