package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps validator.Validate with the portal's field rules.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator registers the nationalid and phone rules.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("nationalid", func(fl validator.FieldLevel) bool {
		return IsNationalID(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// FormatValidationErrors maps field names to readable messages.
func (cv *CustomValidator) FormatValidationErrors(err error) map[string]any {
	errs := make(map[string]any)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errs
	}
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs[field] = field + " is required"
		case "email":
			errs[field] = field + " must be a valid email address"
		case "nationalid":
			errs[field] = field + " must be at least 10 digits"
		case "phone":
			errs[field] = field + " must be a valid phone number"
		case "min":
			errs[field] = field + " must be at least " + e.Param() + " characters"
		case "max":
			errs[field] = field + " must be at most " + e.Param() + " characters"
		default:
			errs[field] = field + " is invalid"
		}
	}
	return errs
}

// IsNationalID reports whether s is a numeric string of at least 10 digits.
func IsNationalID(s string) bool {
	if len(s) < 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsPhone accepts at least 10 digits once '+', '-' and spaces are removed.
func IsPhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r == '+' || r == '-' || r == ' ':
		case r >= '0' && r <= '9':
			digits++
		default:
			return false
		}
	}
	return digits >= 10
}
