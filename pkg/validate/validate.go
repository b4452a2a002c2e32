package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/martin-trajanovski/go-graphql-todos/pkg/apperr"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// Report violations against the JSON field name so that clients see the
	// same path they sent (e.g. "_id", "title").
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return val
}

// Input validates a request shape against its declarative tags and returns
// the full list of violations, or nil when the input is valid. All rules are
// evaluated; the list carries one entry per violated field.
func Input(s any) []apperr.Violation {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperr.Violation{{Path: "", Message: err.Error()}}
	}

	violations := make([]apperr.Violation, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		violations = append(violations, apperr.Violation{
			Path:    fe.Field(),
			Message: messageFor(fe),
		})
	}

	return violations
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "hexadecimal":
		return "must be a hexadecimal string"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
