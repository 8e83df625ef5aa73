package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// FieldError is one failed rule on one form field.
type FieldError struct {
	// Field is the JSON path of the field, e.g. "address.zip".
	Field   string
	Message string
}

// validateFields checks only the named fields of form. Field names are Go
// struct paths such as "Address.Zip".
func validateFields(form any, fields []string) ([]FieldError, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	err := validate.StructPartial(form, fields...)
	if err == nil {
		return nil, nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, fmt.Errorf("validate form: %w", err)
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate form: %w", err)
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: jsonPath(fe.Namespace()), Message: describe(fe)})
	}
	return out, nil
}

// jsonPath drops the root type name from a validator namespace.
func jsonPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	field := jsonPath(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "e164":
		return field + " must be a phone number in international format"
	case "numeric":
		return field + " must contain only digits"
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "eqfield":
		return field + " does not match"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
