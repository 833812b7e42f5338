package orders

import (
	"context"
	"fmt"

	"masterspa/internal/cart"
	"masterspa/internal/logger"
	"masterspa/internal/models"
)

type Service struct {
	store     *Store
	publisher Publisher
	logger    *logger.Logger
}

func NewService(store *Store, publisher Publisher, logger *logger.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger}
}

// SetStatus moves an order to a new status. An event goes out only when the
// status actually changed; a failed publish is logged and does not undo the
// transition.
func (s *Service) SetStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	previous, err := s.store.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	if previous != status {
		s.logger.Info("Order %d status changed: %s -> %s", orderID, previous, status)
		if err := s.publisher.Publish(ctx, NewStatusChanged(orderID, previous, status)); err != nil {
			s.logger.Error("Failed to publish status change of order %d: %v", orderID, err)
		}
	}

	return s.store.Get(ctx, orderID)
}

// AttachSubscribers copies the subscription users of a cart line onto the
// order line as item meta.
func (s *Service) AttachSubscribers(ctx context.Context, orderID, itemID uint, users []cart.SubscriptionUser) error {
	meta := cart.ItemMeta(users)
	if len(meta) == 0 {
		return nil
	}

	entries := make([]models.OrderItemMeta, 0, len(meta))
	for _, m := range meta {
		entries = append(entries, models.OrderItemMeta{Key: m.Key, Value: m.Value})
	}
	return s.store.SetItemMeta(ctx, orderID, itemID, entries...)
}
