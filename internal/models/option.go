package models

import "time"

// Option is a named JSON blob, the storage shape for settings and the
// last import summary.
type Option struct {
	Name      string    `json:"name" gorm:"primaryKey;size:191"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}
