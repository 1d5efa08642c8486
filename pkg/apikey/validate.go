package apikey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// enumTag validates fields whose type has a Valid() bool method.
const enumTag = "known"

type validEnum interface{ Valid() bool }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation(enumTag, func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(validEnum)
		return ok && e.Valid()
	}); err != nil {
		panic(fmt.Errorf("register %s validator: %w", enumTag, err))
	}
	return v
}

// validateParams runs struct validation and joins the failures with
// ErrInvalidParams.
func validateParams(v any) error {
	if err := validate.Struct(v); err != nil {
		return errors.Join(ErrInvalidParams, formatValidationErrors(err))
	}
	return nil
}

func formatValidationErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Field()))
		case "gt", "gte", "lte", "max":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", e.Field(), e.Tag(), e.Param()))
		case enumTag:
			msgs = append(msgs, fmt.Sprintf("%s has an unknown value %v", e.Field(), e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation: %s", e.Field(), e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
