// Package validation wraps go-playground/validator with domain error conversion.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/models"
)

// Validator validates request and settings structs.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for watermark settings.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages, so "size" rather than "FontSize".
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("font", func(fl validator.FieldLevel) bool {
		return models.KnownFont(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register font validation: %v", err))
	}

	return &Validator{v: v}
}

// Validate validates a struct and returns a VALIDATION domain error listing
// each failing field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	parts := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		msg := friendlyMessage(e)
		fieldErrors[e.Field()] = msg
		parts = append(parts, e.Field()+" "+msg)
	}

	return domainerrors.ValidationWithDetails(strings.Join(parts, "; "), fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "font":
		return "must be one of: " + strings.Join(models.Fonts, ", ")
	default:
		return "is invalid"
	}
}
