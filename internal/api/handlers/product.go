package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"masterspa/internal/logger"
	"masterspa/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProductHandler exposes the imported catalog read-only. Products are
// written by the importer alone.
type ProductHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewProductHandler(db *gorm.DB, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		db:     db,
		logger: logger,
	}
}

func (h *ProductHandler) List(c *gin.Context) {
	var products []models.Product

	// Pagination
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	// Filters
	status := c.Query("status")
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))

	query := h.db.WithContext(c.Request.Context()).Model(&models.Product{})

	if status != "" {
		query = query.Where("status = ?", status)
	}

	if search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		h.logger.Error("Failed to count products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	if err := query.Order("id").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		h.logger.Error("Failed to list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": products,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var product models.Product
	err = h.db.WithContext(c.Request.Context()).Preload("Terms").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.logger.Error("Failed to fetch product %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product, "meta": product.Meta()})
}
