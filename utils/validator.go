package utils

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in errors use the json tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct runs the struct validations declared by validate tags.
func ValidateStruct(s interface{}) error {
	return Validator().Struct(s)
}

// FormatValidationErrors turns validator errors into a field -> message map.
func FormatValidationErrors(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fields
	}
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			fields[field] = field + " is required"
		case "min":
			fields[field] = field + " must be at least " + e.Param()
		case "max":
			fields[field] = field + " must be at most " + e.Param()
		case "gte":
			fields[field] = field + " must be greater than or equal to " + e.Param()
		case "lte":
			fields[field] = field + " must be less than or equal to " + e.Param()
		case "oneof":
			fields[field] = field + " must be one of: " + e.Param()
		case "len":
			fields[field] = field + " must be exactly " + e.Param() + " characters"
		case "numeric":
			fields[field] = field + " must be numeric"
		default:
			fields[field] = field + " is invalid"
		}
	}
	return fields
}
