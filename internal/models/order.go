package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	Status           OrderStatus     `json:"status" gorm:"size:20;not null;default:pending;index"`
	Currency         string          `json:"currency" gorm:"size:3;not null;default:RON"`
	Total            decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`
	CustomerID       uint            `json:"customer_id"`
	BillingFirstName string          `json:"billing_first_name"`
	BillingLastName  string          `json:"billing_last_name"`
	BillingEmail     string          `json:"billing_email"`
	BillingPhone     string          `json:"billing_phone"`
	PaymentMethod    string          `json:"payment_method"`
	CustomerNote     string          `json:"customer_note" gorm:"type:text"`
	Items            []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	Meta             []OrderMeta     `json:"meta" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time       `json:"date_created"`
	UpdatedAt        time.Time       `json:"date_modified"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed:
		return true
	}
	return false
}

type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"index"`
	Name      string          `json:"name" gorm:"not null"`
	Quantity  int             `json:"quantity" gorm:"not null;default:1"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`
	Meta      []OrderItemMeta `json:"meta_data" gorm:"foreignKey:OrderItemID"`
}

type OrderMeta struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	OrderID uint   `json:"order_id" gorm:"not null;index"`
	Key     string `json:"key" gorm:"not null"`
	Value   string `json:"value" gorm:"type:text"`
}

type OrderItemMeta struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	OrderItemID uint   `json:"order_item_id" gorm:"not null;index"`
	Key         string `json:"key" gorm:"not null"`
	Value       string `json:"value" gorm:"type:text"`
}

// OrderInfoMetaKey holds the free-form JSON order info attached at checkout.
const OrderInfoMetaKey = "_order_info"
