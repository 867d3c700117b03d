package models

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/neilberkman/vigil/internal/core/calendar"
	"github.com/neilberkman/vigil/internal/core/errvalues"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func validatorInstance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
			return calendar.Date(fl.Field().String()).Valid()
		})
		validate.RegisterValidation("novena_kind", func(fl validator.FieldLevel) bool {
			_, ok := LookupNovena(NovenaKind(fl.Field().String()))
			return ok
		})
	})
	return validate
}

// Validate checks a record (or slice of records) against its struct tags.
// Failures wrap errvalues.ErrValidation.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		joined := errvalues.ErrValidation
		for _, fieldErr := range validationErrors {
			joined = errors.Join(joined, fieldErr)
		}
		return joined
	}
	return fmt.Errorf("%w: %v", errvalues.ErrValidation, err)
}

// ValidateAll validates every element and reports the first failing index.
func ValidateAll[T any](records []T) error {
	for i := range records {
		if err := Validate(records[i]); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
