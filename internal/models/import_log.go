package models

import "time"

type ImportLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ImportDate time.Time `json:"import_date" gorm:"not null;index"`
	LogType    LogType   `json:"log_type" gorm:"size:20;not null;index"`
	SKU        *string   `json:"sku"`
	ProductID  *uint     `json:"product_id"`
	Message    string    `json:"message" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

type LogType string

const (
	LogTypeInfo    LogType = "info"
	LogTypeCreated LogType = "created"
	LogTypeUpdated LogType = "updated"
	LogTypeError   LogType = "error"
	LogTypeWarning LogType = "warning"
)

// ImportStats is the per-run tally shown after an import.
type ImportStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
	Total   int `json:"total"`
}

type ImportSummary struct {
	Timestamp time.Time   `json:"timestamp"`
	Stats     ImportStats `json:"stats"`
}
