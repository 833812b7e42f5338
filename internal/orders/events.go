package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"masterspa/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const EventStatusChanged = "order.status_changed"

// Event is published whenever an order changes status.
type Event struct {
	ID        string             `json:"id"`
	Type      string             `json:"type" validate:"required"`
	OrderID   uint               `json:"order_id" validate:"required"`
	From      models.OrderStatus `json:"from"`
	To        models.OrderStatus `json:"to" validate:"required"`
	Timestamp time.Time          `json:"timestamp"`
}

func NewStatusChanged(orderID uint, from, to models.OrderStatus) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      EventStatusChanged,
		OrderID:   orderID,
		From:      from,
		To:        to,
		Timestamp: time.Now().UTC(),
	}
}

// ProcessingHandler reacts to orders entering the processing state.
type ProcessingHandler interface {
	OrderProcessing(ctx context.Context, orderID uint) error
}

// Dispatch routes an event to the handler. Events other than a transition
// to processing are ignored.
func Dispatch(ctx context.Context, ev Event, handler ProcessingHandler) error {
	if ev.Type != EventStatusChanged || ev.To != models.OrderStatusProcessing {
		return nil
	}
	return handler.OrderProcessing(ctx, ev.OrderID)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// KafkaPublisher writes events to a topic, keyed by order id so one order's
// events stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(ev.OrderID), 10)),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// InlinePublisher dispatches events in the caller's goroutine. Used when no
// broker is configured.
type InlinePublisher struct {
	handler ProcessingHandler
}

func NewInlinePublisher(handler ProcessingHandler) *InlinePublisher {
	return &InlinePublisher{handler: handler}
}

func (p *InlinePublisher) Publish(ctx context.Context, ev Event) error {
	return Dispatch(ctx, ev, p.handler)
}
