package handlers

import (
	"net/http"
	"time"

	"masterspa/internal/logger"
	"masterspa/internal/settings"

	"github.com/gin-gonic/gin"
)

// Rescheduler applies saved settings to the import schedule.
type Rescheduler interface {
	Apply(s settings.Settings) error
	Next() (time.Time, bool)
}

type SettingsHandler struct {
	store     *settings.Store
	scheduler Rescheduler
	logger    *logger.Logger
}

func NewSettingsHandler(store *settings.Store, scheduler Rescheduler, logger *logger.Logger) *SettingsHandler {
	return &SettingsHandler{store: store, scheduler: scheduler, logger: logger}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.store.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, h.response(s))
}

// Update stores a sanitised copy of the submitted settings and reschedules
// the import. Fields missing from the body fall back to their defaults.
func (h *SettingsHandler) Update(c *gin.Context) {
	var input settings.Settings
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := settings.Sanitize(input)
	if err := h.store.Save(c.Request.Context(), s); err != nil {
		h.logger.Error("Failed to save settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	if err := h.scheduler.Apply(s); err != nil {
		h.logger.Error("Failed to reschedule import: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Settings saved but the import could not be rescheduled"})
		return
	}

	c.JSON(http.StatusOK, h.response(s))
}

func (h *SettingsHandler) response(s settings.Settings) gin.H {
	out := gin.H{"data": s, "next_run": nil}
	if next, ok := h.scheduler.Next(); ok {
		out["next_run"] = next
	}
	return out
}
