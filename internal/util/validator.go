package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// credit: https://github.com/go-playground/validator/issues/559#issuecomment-976459959

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func msgForTag(fe validator.FieldError, customField map[string]string) string {
	// convert to custom field if exist
	field := fe.Field()
	if custom, ok := customField[field]; ok {
		field = custom
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%v is required", field)
	case "url":
		return fmt.Sprintf("%v must be a valid url", field)
	case "oneof":
		return fmt.Sprintf("%v must be one of [%v]", field, fe.Param())
	case "min":
		return fmt.Sprintf("%v must be at least %v", field, fe.Param())
	case "max":
		return fmt.Sprintf("%v must be at most %v", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%v must be greater than or equal to %v", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%v must be less than or equal to %v", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%v must be a number", field)
	case "required_if":
		return fmt.Sprintf("%v is required when %v", field, fe.Param())
	case "strNotEmpty":
		return fmt.Sprintf("%v must not be empty or contain only whitespace charaters", field)
	}

	return fe.Error() // default error
}

// NewValidator returns a validator with the custom tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	// Registering a well formed tag cannot fail
	_ = v.RegisterValidation("strNotEmpty", StrNotEmpty)
	return v
}

/*
GenerateErrorMessages extracts validation errors and returns one FieldError per
failed field. If a customField map is provided, it replaces the struct field
name with the corresponding custom name, e.g. the config key.

	GenerateErrorMessages(err, map[string]string{"FailurePolicy": "failure_policy"})
*/
func GenerateErrorMessages(err error, customField map[string]string) []FieldError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]FieldError, len(ve))
		for i, fe := range ve {
			field := fe.Field()
			if custom, ok := customField[field]; ok {
				field = custom
			}
			out[i] = FieldError{field, msgForTag(fe, customField)}
		}
		return out
	}

	return []FieldError{{Field: "Unknown", Message: err.Error()}}
}

/*
Extract error from validator and return every message joined as one string
Usage: GenerateErrorMessagesAsString(err, map[string]string{"Workers": "workers"})
Example output: "workers must be greater than or equal to 0"
*/
func GenerateErrorMessagesAsString(err error, customField map[string]string) string {
	msgs := GenerateErrorMessages(err, customField)
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Message)
	}
	return strings.Join(parts, "; ")
}

// check if string is empty, after trimming spaces
// Usage: `validate:"strNotEmpty"`
func StrNotEmpty(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}

	return len(strings.TrimSpace(field.String())) > 0
}
