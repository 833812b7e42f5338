package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           uint                `json:"id" gorm:"primaryKey"`
	SKU          string              `json:"sku" gorm:"uniqueIndex;not null"`
	Title        string              `json:"title" gorm:"not null"`
	Description  string              `json:"description" gorm:"type:text"`
	Status       ProductStatus       `json:"status" gorm:"size:20;not null;default:publish"`
	Type         string              `json:"type" gorm:"size:20;not null;default:simple"`
	RegularPrice decimal.NullDecimal `json:"regular_price" gorm:"type:decimal(10,2)"`
	SalePrice    decimal.NullDecimal `json:"sale_price" gorm:"type:decimal(10,2)"`
	Price        decimal.NullDecimal `json:"price" gorm:"type:decimal(10,2)"`
	ManageStock  bool                `json:"manage_stock" gorm:"not null;default:false"`
	StockStatus  string              `json:"stock_status" gorm:"size:20;not null;default:instock"`
	Terms        []Term              `json:"terms,omitempty" gorm:"many2many:product_terms"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type ProductStatus string

const (
	ProductStatusPublish ProductStatus = "publish"
	ProductStatusDraft   ProductStatus = "draft"
	ProductStatusPending ProductStatus = "pending"
)

const (
	ProductTypeSimple  = "simple"
	StockStatusInStock = "instock"
)

// Meta flattens the catalog fields into the key/value shape external
// consumers of order payloads expect.
func (p *Product) Meta() map[string]string {
	meta := map[string]string{
		"_sku":          p.SKU,
		"_product_type": p.Type,
		"_manage_stock": "no",
		"_stock_status": p.StockStatus,
	}
	if p.ManageStock {
		meta["_manage_stock"] = "yes"
	}
	if p.RegularPrice.Valid {
		meta["_regular_price"] = p.RegularPrice.Decimal.StringFixed(2)
	}
	if p.SalePrice.Valid {
		meta["_sale_price"] = p.SalePrice.Decimal.StringFixed(2)
	}
	if p.Price.Valid {
		meta["_price"] = p.Price.Decimal.StringFixed(2)
	}
	return meta
}
