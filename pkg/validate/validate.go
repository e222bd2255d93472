// Package validate wraps a shared validator instance for DTO checks.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct validates a DTO against its validate tags.
func Struct(s any) error {
	return v.Struct(s)
}

// Messages flattens a validator error into per-field messages suitable
// for an API response. Non-validator errors map to a single "request"
// entry.
func Messages(err error) map[string]string {
	fields := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["request"] = err.Error()
		return fields
	}

	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
