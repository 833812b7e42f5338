package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"masterspa/internal/catalog"
	"masterspa/internal/importlog"
	"masterspa/internal/logger"
	"masterspa/internal/models"
	"masterspa/internal/services/feed"
	"masterspa/internal/settings"

	"github.com/google/uuid"
)

const (
	// MarkerTerm selects the orders the webhook is interested in.
	MarkerTerm = "spa"

	DeliveryHeader = "X-Delivery-ID"
	requestTimeout = 30 * time.Second
	maxLoggedBody  = 1000
)

type OrderLoader interface {
	Get(ctx context.Context, id uint) (*models.Order, error)
}

type ProductCatalog interface {
	HasTerm(ctx context.Context, productID uint, name string, taxonomies ...models.Taxonomy) (bool, error)
	ProductMeta(ctx context.Context, id uint) (map[string]string, error)
}

type SettingsLoader interface {
	Load(ctx context.Context) (settings.Settings, error)
}

type LogWriter interface {
	Log(ctx context.Context, entry importlog.Entry) error
}

// Notifier posts processing orders that contain spa products to the
// configured webhook.
type Notifier struct {
	orders     OrderLoader
	catalog    ProductCatalog
	settings   SettingsLoader
	log        LogWriter
	logger     *logger.Logger
	httpClient *http.Client
}

func NewNotifier(orders OrderLoader, cat ProductCatalog, store SettingsLoader, log LogWriter, logger *logger.Logger) *Notifier {
	return &Notifier{
		orders:     orders,
		catalog:    cat,
		settings:   store,
		log:        log,
		logger:     logger,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// OrderProcessing handles an order entering the processing state. Delivery
// problems are logged and never returned; only failures to load the order
// or the settings are.
func (n *Notifier) OrderProcessing(ctx context.Context, orderID uint) error {
	order, err := n.orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", orderID, err)
	}

	relevant, err := n.hasMarkedProduct(ctx, order)
	if err != nil {
		return err
	}
	if !relevant {
		n.logger.Debug("Order %d has no %s products, skipping webhook", orderID, MarkerTerm)
		return nil
	}

	s, err := n.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if s.WebhookURL == "" {
		n.logger.Debug("No webhook URL configured, skipping order %d", orderID)
		return nil
	}

	payload, err := n.BuildPayload(ctx, order)
	if err != nil {
		return err
	}

	n.deliver(ctx, s, order.ID, payload)
	return nil
}

func (n *Notifier) hasMarkedProduct(ctx context.Context, order *models.Order) (bool, error) {
	for _, item := range order.Items {
		if item.ProductID == 0 {
			continue
		}
		ok, err := n.catalog.HasTerm(ctx, item.ProductID, MarkerTerm, models.TaxonomyTag, models.TaxonomyCategory)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (n *Notifier) deliver(ctx context.Context, s settings.Settings, orderID uint, payload *Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.record(ctx, models.LogTypeError, "Webhook post failed: "+err.Error())
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.record(ctx, models.LogTypeError, "Webhook post failed: "+err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(DeliveryHeader, uuid.NewString())
	if s.AuthHeader != "" {
		req.Header.Set(feed.SecretHeader, s.AuthHeader)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.record(ctx, models.LogTypeError, "Webhook post failed: "+err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		n.record(ctx, models.LogTypeInfo, fmt.Sprintf("Webhook posted successfully for order %d", orderID))
		return
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	n.record(ctx, models.LogTypeError, fmt.Sprintf("Webhook returned %d body: %s", resp.StatusCode, snippet))
}

func (n *Notifier) record(ctx context.Context, logType models.LogType, message string) {
	if logType == models.LogTypeError {
		n.logger.Error("%s", message)
	} else {
		n.logger.Info("%s", message)
	}
	if err := n.log.Log(ctx, importlog.Entry{Type: logType, Message: message}); err != nil {
		n.logger.Error("Failed to write import log: %v", err)
	}
}

// productMeta tolerates products deleted since the order was placed.
func (n *Notifier) productMeta(ctx context.Context, productID uint) (map[string]string, error) {
	if productID == 0 {
		return map[string]string{}, nil
	}
	meta, err := n.catalog.ProductMeta(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) {
		return map[string]string{}, nil
	}
	return meta, err
}
