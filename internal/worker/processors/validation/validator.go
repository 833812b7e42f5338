package validation

import (
	"fmt"

	"masterspa/internal/logger"
	"masterspa/internal/orders"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func New(logger *logger.Logger) *Validator {
	return &Validator{
		validate: validator.New(),
		logger:   logger,
	}
}

// ValidateEvent rejects events missing the fields routing depends on.
func (v *Validator) ValidateEvent(ev orders.Event) error {
	v.logger.Debug("Validating event: %+v", ev)

	if err := v.validate.Struct(ev); err != nil {
		return fmt.Errorf("invalid order event %q: %w", ev.ID, err)
	}
	return nil
}
