package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"masterspa/internal/config"
	"masterspa/internal/logger"
	"masterspa/internal/orders"
	"masterspa/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

// Processor handles one decoded order event.
type Processor interface {
	Process(ctx context.Context, event orders.Event) error
}

type Worker struct {
	config    *config.Config
	logger    *logger.Logger
	reader    *kafka.Reader
	processor Processor
}

func New(cfg *config.Config, logger *logger.Logger, handler orders.ProcessingHandler) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokerList(),
		GroupID:        cfg.WorkerGroupID,
		Topic:          cfg.OrderEventTopic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &Worker{
		config:    cfg,
		logger:    logger,
		reader:    reader,
		processor: processors.NewEventProcessor(handler, logger),
	}
}

// Start consumes order events until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started, listening for events on %s...", w.config.OrderEventTopic)

	for {
		message, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("Failed to read message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		w.handle(ctx, message.Value)
	}
}

func (w *Worker) handle(ctx context.Context, value []byte) {
	w.logger.Debug("Received message: %s", string(value))

	// Parse event
	var event orders.Event
	if err := json.Unmarshal(value, &event); err != nil {
		w.logger.Error("Failed to parse event: %v", err)
		return
	}

	// Process event
	if err := w.processor.Process(ctx, event); err != nil {
		w.logger.Error("Failed to process event: %v", err)
		return
	}

	w.logger.Debug("Event %s processed successfully", event.ID)
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if err := w.reader.Close(); err != nil {
		w.logger.Error("Failed to close reader: %v", err)
	}
}
