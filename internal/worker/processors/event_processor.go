package processors

import (
	"context"

	"masterspa/internal/logger"
	"masterspa/internal/orders"
	"masterspa/internal/worker/processors/validation"
)

type EventProcessor struct {
	logger    *logger.Logger
	validator *validation.Validator
	handler   orders.ProcessingHandler
}

func NewEventProcessor(handler orders.ProcessingHandler, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		logger:    logger,
		validator: validation.New(logger),
		handler:   handler,
	}
}

// Process validates an order event and hands status changes into
// processing to the handler.
func (ep *EventProcessor) Process(ctx context.Context, event orders.Event) error {
	if err := ep.validator.ValidateEvent(event); err != nil {
		return err
	}

	ep.logger.Debug("Processing event %s for order %d", event.Type, event.OrderID)

	return orders.Dispatch(ctx, event, ep.handler)
}
