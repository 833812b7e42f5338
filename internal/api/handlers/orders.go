package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"masterspa/internal/cart"
	"masterspa/internal/logger"
	"masterspa/internal/models"
	"masterspa/internal/orders"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service *orders.Service
	logger  *logger.Logger
}

func NewOrderHandler(service *orders.Service, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{service: service, logger: logger}
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type subscribersRequest struct {
	Users []cart.SubscriptionUser `json:"users"`
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.SetStatus(c.Request.Context(), id, req.Status)
	switch {
	case errors.Is(err, orders.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case err != nil:
		h.logger.Error("Failed to update order %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
	default:
		c.JSON(http.StatusOK, gin.H{"data": order})
	}
}

// AttachSubscribers is the checkout step copying a cart line's
// subscription users onto the order line.
func (h *OrderHandler) AttachSubscribers(c *gin.Context) {
	orderID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := uintParam(c, "itemId")
	if !ok {
		return
	}

	var req subscribersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.AttachSubscribers(c.Request.Context(), orderID, itemID, req.Users)
	switch {
	case errors.Is(err, orders.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order item not found"})
	case err != nil:
		h.logger.Error("Failed to attach subscribers to order %d item %d: %v", orderID, itemID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach subscribers"})
	default:
		c.JSON(http.StatusOK, gin.H{"data": cart.Sanitize(req.Users)})
	}
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}
