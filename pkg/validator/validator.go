package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/okatech-org/consulat-scheduling/internal/model"
)

// Validator validates request structs at the service boundary, independent
// of the HTTP binding layer, so non-HTTP callers get the same checks.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// The built-in datetime rule rides on time.Parse, which tolerates
	// unpadded fields like "9:15". All interval arithmetic here compares
	// raw strings, so only the fixed-width forms are valid input.
	mustRegister(v, "caldate", func(fl validator.FieldLevel) bool {
		return model.ValidDate(fl.Field().String())
	})
	mustRegister(v, "hhmm", func(fl validator.FieldLevel) bool {
		return model.ValidClock(fl.Field().String())
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func (x *Validator) Struct(s interface{}) error {
	if err := x.v.Struct(s); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
