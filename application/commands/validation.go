package commands

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "gamegroup-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// Validator checks command structs against their validate tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator reporting fields by their JSON names
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate returns a VALIDATION AppError listing every failed field
func (v *Validator) Validate(cmd interface{}) error {
	err := v.validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError(err.Error())
	}

	fields := make(map[string]interface{}, len(validationErrors))
	names := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = message(e.Tag(), e.Param())
		names = append(names, e.Field())
	}
	return apperrors.NewValidationError(fmt.Sprintf("invalid fields: %s", strings.Join(names, ", "))).
		WithDetails(fields)
}

func message(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s", param)
	case "max":
		return fmt.Sprintf("Must be at most %s", param)
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", param)
	case "gtefield":
		return fmt.Sprintf("Must be greater than or equal to %s", param)
	case "datetime":
		return fmt.Sprintf("Must match %s", param)
	default:
		return fmt.Sprintf("Failed %s validation", tag)
	}
}
