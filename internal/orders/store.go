package orders

import (
	"context"
	"errors"
	"fmt"

	"masterspa/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrItemNotFound  = errors.New("order item not found")
	ErrInvalidStatus = errors.New("invalid order status")
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Get loads an order with its items, their meta and the order meta.
func (s *Store) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Meta", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Meta", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order %d: %w", id, err)
	}
	return &order, nil
}

// UpdateStatus stores the new status and returns the previous one.
func (s *Store) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (models.OrderStatus, error) {
	var previous models.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id", "status").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		previous = order.Status
		if previous == status {
			return nil
		}
		return tx.Model(&order).Update("status", status).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to update status of order %d: %w", id, err)
	}
	return previous, nil
}

// SetItemMeta writes meta values on an order line in one transaction,
// replacing values already stored under the same keys.
func (s *Store) SetItemMeta(ctx context.Context, orderID, itemID uint, entries ...models.OrderItemMeta) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.OrderItem{}).Where("id = ? AND order_id = ?", itemID, orderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrItemNotFound
		}
		for _, entry := range entries {
			err := tx.Where(&models.OrderItemMeta{OrderItemID: itemID, Key: entry.Key}).
				Delete(&models.OrderItemMeta{}).Error
			if err != nil {
				return err
			}
			row := models.OrderItemMeta{OrderItemID: itemID, Key: entry.Key, Value: entry.Value}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
