package importlog

import (
	"context"
	"fmt"
	"time"

	"masterspa/internal/models"

	"gorm.io/gorm"
)

const DefaultPerPage = 20

// Entry is one log line written during an import run.
type Entry struct {
	ImportDate time.Time
	Type       models.LogType
	SKU        string
	ProductID  uint
	Message    string
}

// Page is one page of log entries, newest first.
type Page struct {
	Logs        []models.ImportLog `json:"logs"`
	Total       int64              `json:"total"`
	PerPage     int                `json:"per_page"`
	CurrentPage int                `json:"current_page"`
	LastPage    int                `json:"last_page"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Log appends an entry. Empty SKUs and zero product ids are stored as NULL.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	row := models.ImportLog{
		ImportDate: entry.ImportDate,
		LogType:    entry.Type,
		Message:    entry.Message,
	}
	if row.ImportDate.IsZero() {
		row.ImportDate = time.Now()
	}
	if entry.SKU != "" {
		sku := entry.SKU
		row.SKU = &sku
	}
	if entry.ProductID != 0 {
		id := entry.ProductID
		row.ProductID = &id
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to write import log: %w", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	out := &Page{PerPage: perPage, CurrentPage: page, Logs: []models.ImportLog{}}

	db := r.db.WithContext(ctx).Model(&models.ImportLog{})
	if err := db.Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count import logs: %w", err)
	}

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&out.Logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}

	out.LastPage = int((out.Total + int64(perPage) - 1) / int64(perPage))
	return out, nil
}

// Clear drops every log entry.
func (r *Repository) Clear(ctx context.Context) error {
	err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ImportLog{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear import logs: %w", err)
	}
	return nil
}

// SummaryFor counts the entries of one run by type.
func (r *Repository) SummaryFor(ctx context.Context, importDate time.Time) (map[models.LogType]int64, error) {
	var rows []struct {
		LogType models.LogType
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&models.ImportLog{}).
		Select("log_type, COUNT(*) AS count").
		Where("import_date = ?", importDate).
		Group("log_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarise import %s: %w", importDate.Format(time.RFC3339), err)
	}

	counts := make(map[models.LogType]int64, len(rows))
	for _, row := range rows {
		counts[row.LogType] = row.Count
	}
	return counts, nil
}

// PruneOlderThan deletes entries created more than days ago and returns how
// many were removed. Zero or negative days keep everything.
func (r *Repository) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ImportLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune import logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
