// internal/utils/validator.go
package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("slug", validateSlug)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateStrongPassword wants at least 8 runes with an upper, a lower,
// a digit and a symbol.
func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len([]rune(password)) < 8 {
		return false
	}

	var classes [4]bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			classes[0] = true
		case unicode.IsLower(r):
			classes[1] = true
		case unicode.IsDigit(r):
			classes[2] = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			classes[3] = true
		}
	}
	return classes[0] && classes[1] && classes[2] && classes[3]
}

// Workspace and branch identifiers: lowercase letters, digits, '-' and '_'.
func validateSlug(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return len(value) <= 100 && slugPattern.MatchString(value)
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// IsValidationErrors reports whether err came from ValidateStruct.
func IsValidationErrors(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

func GetValidationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, ValidationError{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Message: validationMessage(e),
		})
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	field, param := e.Field(), e.Param()
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "uuid", "uuid4":
		return field + " must be a UUID"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, param)
	case "lte":
		return fmt.Sprintf("%s must be %s or less", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "strong_password":
		return field + " needs 8+ characters with upper and lower case letters, a digit and a symbol"
	case "slug":
		return field + " may only contain lowercase letters, digits, '-' and '_'"
	default:
		return field + " is invalid"
	}
}
