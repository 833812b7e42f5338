package handlers

import (
	"net/http"
	"strconv"

	"masterspa/internal/importlog"
	"masterspa/internal/logger"

	"github.com/gin-gonic/gin"
)

type LogHandler struct {
	repo   *importlog.Repository
	logger *logger.Logger
}

func NewLogHandler(repo *importlog.Repository, logger *logger.Logger) *LogHandler {
	return &LogHandler{repo: repo, logger: logger}
}

func (h *LogHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	result, err := h.repo.List(c.Request.Context(), page, importlog.DefaultPerPage)
	if err != nil {
		h.logger.Error("Failed to list import logs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *LogHandler) Clear(c *gin.Context) {
	if err := h.repo.Clear(c.Request.Context()); err != nil {
		h.logger.Error("Failed to clear import logs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear logs"})
		return
	}
	h.logger.Info("Import log cleared")
	c.Status(http.StatusNoContent)
}
