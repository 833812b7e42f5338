package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"masterspa/internal/connectors/woocommerce"
	"masterspa/internal/logger"
	"masterspa/internal/models"

	"github.com/gin-gonic/gin"
)

type Importer interface {
	Import(ctx context.Context) (*woocommerce.Result, error)
}

type SummaryLoader interface {
	LoadSummary(ctx context.Context) (*models.ImportSummary, error)
}

type ImportHandler struct {
	importer Importer
	summary  SummaryLoader
	logger   *logger.Logger
}

func NewImportHandler(importer Importer, summary SummaryLoader, logger *logger.Logger) *ImportHandler {
	return &ImportHandler{importer: importer, summary: summary, logger: logger}
}

// Run triggers an import and waits for it. With ?redirect=/path the result
// is returned as query parameters on a 303 to that path instead of JSON.
func (h *ImportHandler) Run(c *gin.Context) {
	result, err := h.importer.Import(c.Request.Context())
	if errors.Is(err, woocommerce.ErrImportInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Manual import failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
		return
	}

	status := "success"
	if !result.Success {
		status = "error"
	}

	if target := c.Query("redirect"); isLocalPath(target) {
		q := url.Values{}
		q.Set("import_result", status)
		q.Set("import_message", result.Message)
		q.Set("products_created", strconv.Itoa(result.Stats.Created))
		q.Set("products_updated", strconv.Itoa(result.Stats.Updated))
		q.Set("products_errors", strconv.Itoa(result.Stats.Errors))
		q.Set("products_total", strconv.Itoa(result.Stats.Total))

		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		c.Redirect(http.StatusSeeOther, target+sep+q.Encode())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"import_result":    status,
		"import_message":   result.Message,
		"products_created": result.Stats.Created,
		"products_updated": result.Stats.Updated,
		"products_errors":  result.Stats.Errors,
		"products_total":   result.Stats.Total,
	})
}

func (h *ImportHandler) Summary(c *gin.Context) {
	summary, err := h.summary.LoadSummary(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load import summary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load import summary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// isLocalPath accepts same-origin absolute paths only.
func isLocalPath(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	u, err := url.Parse(target)
	return err == nil && u.Scheme == "" && u.Host == ""
}
