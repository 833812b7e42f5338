package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"masterspa/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SettingsOption = "masterspa_settings"
	SummaryOption  = "masterspa_last_import"
)

// Store persists settings and the last import summary as JSON options.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load returns the saved settings, or the defaults when none were saved yet.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	out := Defaults()
	found, err := s.get(ctx, SettingsOption, &out)
	if err != nil {
		return Settings{}, err
	}
	if !found {
		return Defaults(), nil
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, settings Settings) error {
	return s.put(ctx, SettingsOption, settings)
}

// LoadSummary returns nil when no import has completed yet.
func (s *Store) LoadSummary(ctx context.Context) (*models.ImportSummary, error) {
	var summary models.ImportSummary
	found, err := s.get(ctx, SummaryOption, &summary)
	if err != nil || !found {
		return nil, err
	}
	return &summary, nil
}

func (s *Store) SaveSummary(ctx context.Context, summary models.ImportSummary) error {
	return s.put(ctx, SummaryOption, summary)
}

func (s *Store) get(ctx context.Context, name string, dest interface{}) (bool, error) {
	var opt models.Option
	err := s.db.WithContext(ctx).First(&opt, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load option %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(opt.Value), dest); err != nil {
		return false, fmt.Errorf("failed to decode option %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) put(ctx context.Context, name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode option %s: %w", name, err)
	}
	opt := models.Option{Name: name, Value: string(data)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&opt).Error
	if err != nil {
		return fmt.Errorf("failed to save option %s: %w", name, err)
	}
	return nil
}
