package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/eureka-sidecar/errors"
)

var structs = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(keyName)
	return v
})

// keyName reports a field by its json key, then its config key, then its Go
// name.
func keyName(f reflect.StructField) string {
	for _, tag := range []string{"json", "mapstructure"} {
		if name, _, _ := strings.Cut(f.Tag.Get(tag), ","); name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// Validate checks s against its validate tags and returns an INVALID_INPUT
// AppError naming each failed field.
func Validate(s any) error {
	err := structs().Struct(s)
	if err == nil {
		return nil
	}
	var failed validator.ValidationErrors
	if !stderrors.As(err, &failed) {
		return errors.Validation("validation failed")
	}
	fields := make([]FieldError, len(failed))
	for i, e := range failed {
		fields[i] = FieldError{Field: fieldPath(e), Message: formatValidationError(e)}
	}
	return fieldsError(fields)
}

// fieldPath drops the top-level struct name from the namespace so nested
// config fields read as registry.eureka.url.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "url":
		return "must be a valid URL"
	case "hostname_rfc1123", "hostname":
		return "must be a valid host name"
	case "ip":
		return "must be a valid IP address"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	default:
		return "is invalid"
	}
}
