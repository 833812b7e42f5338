package handlers

import (
	"net/http"

	"masterspa/internal/cart"
	"masterspa/internal/logger"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	store  cart.SessionStore
	logger *logger.Logger
}

func NewCartHandler(store cart.SessionStore, logger *logger.Logger) *CartHandler {
	return &CartHandler{store: store, logger: logger}
}

func (h *CartHandler) GetSubscribers(c *gin.Context) {
	users, err := h.store.Get(c.Request.Context(), c.Param("session"), c.Param("key"))
	if err != nil {
		h.logger.Error("Failed to read cart session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

// SaveSubscribers replaces the subscription users of one cart line.
func (h *CartHandler) SaveSubscribers(c *gin.Context) {
	var req subscribersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	users := cart.Sanitize(req.Users)
	if err := h.store.Save(c.Request.Context(), c.Param("session"), c.Param("key"), users); err != nil {
		h.logger.Error("Failed to save cart session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}
