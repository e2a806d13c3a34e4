// internal/utils/validator.go
package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/pod-backend/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("post_validation_action", validatePostValidationAction)
	validate.RegisterValidation("decision", validateDecision)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validatePostValidationAction(fl validator.FieldLevel) bool {
	return models.PostValidationAction(fl.Field().String()).Valid()
}

func validateDecision(fl validator.FieldLevel) bool {
	return models.Decision(fl.Field().String()).Valid()
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "required_if":
		return e.Field() + " is required when " + strings.ReplaceAll(e.Param(), " ", " is ")
	case "post_validation_action":
		return "Post validation action must be AUTO_PUBLISH or TO_DRAFT"
	case "decision":
		return "Decision must be VALIDATE or REJECT"
	default:
		return e.Field() + " is invalid"
	}
}
