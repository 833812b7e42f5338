package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"masterspa/internal/models"

	"github.com/shopspring/decimal"
)

// Payload is the JSON document posted for an order.
type Payload struct {
	ID            uint               `json:"id"`
	Status        models.OrderStatus `json:"status"`
	Currency      string             `json:"currency"`
	Total         decimal.Decimal    `json:"total"`
	CustomerID    uint               `json:"customer_id"`
	Billing       Billing            `json:"billing"`
	PaymentMethod string             `json:"payment_method"`
	CustomerNote  string             `json:"customer_note"`
	DateCreated   time.Time          `json:"date_created"`
	DateModified  time.Time          `json:"date_modified"`
	Items         []Item             `json:"items"`
	Meta          map[string]string  `json:"meta"`
	CustomInfo    interface{}        `json:"custom_info,omitempty"`
}

type Billing struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type Item struct {
	ID               uint                   `json:"id"`
	ProductID        uint                   `json:"product_id"`
	Name             string                 `json:"name"`
	Quantity         int                    `json:"quantity"`
	Subtotal         decimal.Decimal        `json:"subtotal"`
	Total            decimal.Decimal        `json:"total"`
	MetaData         []models.OrderItemMeta `json:"meta_data"`
	ProductMetaInput map[string]string      `json:"product_meta_input"`
}

// BuildPayload assembles the webhook document: order fields, line items
// with their product metadata, order metadata and the decoded order info.
func (n *Notifier) BuildPayload(ctx context.Context, order *models.Order) (*Payload, error) {
	p := &Payload{
		ID:         order.ID,
		Status:     order.Status,
		Currency:   order.Currency,
		Total:      order.Total,
		CustomerID: order.CustomerID,
		Billing: Billing{
			FirstName: order.BillingFirstName,
			LastName:  order.BillingLastName,
			Email:     order.BillingEmail,
			Phone:     order.BillingPhone,
		},
		PaymentMethod: order.PaymentMethod,
		CustomerNote:  order.CustomerNote,
		DateCreated:   order.CreatedAt,
		DateModified:  order.UpdatedAt,
		Items:         make([]Item, 0, len(order.Items)),
		Meta:          make(map[string]string, len(order.Meta)),
	}

	for _, item := range order.Items {
		meta, err := n.productMeta(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
		}
		itemMeta := item.Meta
		if itemMeta == nil {
			itemMeta = []models.OrderItemMeta{}
		}
		p.Items = append(p.Items, Item{
			ID:               item.ID,
			ProductID:        item.ProductID,
			Name:             item.Name,
			Quantity:         item.Quantity,
			Subtotal:         item.Subtotal,
			Total:            item.Total,
			MetaData:         itemMeta,
			ProductMetaInput: meta,
		})
	}

	for _, m := range order.Meta {
		p.Meta[m.Key] = m.Value
	}
	if raw, ok := p.Meta[models.OrderInfoMetaKey]; ok && raw != "" {
		p.CustomInfo = decodeOrderInfo(raw)
	}

	return p, nil
}

// decodeOrderInfo returns the decoded JSON value, or the raw string when it
// is not JSON.
func decodeOrderInfo(raw string) interface{} {
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil || decoded == nil {
		return raw
	}
	return decoded
}
