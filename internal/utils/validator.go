// internal/utils/validator.go
package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Option catalogs checked by the custom validation tags.
var (
	partnershipTypes = map[string]bool{
		"reseller": true, "affiliate": true, "white_label": true,
		"referral": true, "integration": true, "distributor": true,
	}
	accountTypes = map[string]bool{"vendor": true, "partner": true}
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("partnership_type", validatePartnershipType)
	validate.RegisterValidation("account_type", validateAccountType)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validatePartnershipType(fl validator.FieldLevel) bool {
	return partnershipTypes[fl.Field().String()]
}

func validateAccountType(fl validator.FieldLevel) bool {
	return accountTypes[fl.Field().String()]
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// MissingFieldErrors reports required fields by wire name.
func MissingFieldErrors(fields []string) []ValidationError {
	out := make([]ValidationError, 0, len(fields))
	for _, f := range fields {
		out = append(out, ValidationError{Field: f, Tag: "required", Message: f + " is required"})
	}
	return out
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "url":
		return e.Field() + " must be a valid URL"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "partnership_type":
		return e.Field() + " is not a supported partnership type"
	case "account_type":
		return e.Field() + " must be vendor or partner"
	default:
		return e.Field() + " is invalid"
	}
}
