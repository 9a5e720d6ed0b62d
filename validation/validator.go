package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/eureka-sidecar/errors"
)

// FieldError is one rejected field. Field uses the JSON or config key.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects hand-written checks for values that have no struct tags
// or whose rules depend on other fields. Only the first failure per field is
// kept.
type Validator struct {
	failed []FieldError
}

func New() *Validator { return &Validator{} }

// Check records msg against field unless ok.
func (v *Validator) Check(ok bool, field, msg string) *Validator {
	if ok || v.failedOn(field) {
		return v
	}
	v.failed = append(v.failed, FieldError{Field: field, Message: msg})
	return v
}

func (v *Validator) failedOn(field string) bool {
	for _, f := range v.failed {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (v *Validator) HasErrors() bool { return len(v.failed) > 0 }

// Err returns nil or an INVALID_INPUT AppError listing every failed field.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return fieldsError(v.failed)
}

// Required rejects blank and whitespace-only values.
func (v *Validator) Required(field, value string) *Validator {
	return v.Check(strings.TrimSpace(value) != "", field, "is required")
}

func (v *Validator) Range(field string, value, lo, hi int) *Validator {
	return v.Check(value >= lo && value <= hi, field, fmt.Sprintf("must be between %d and %d", lo, hi))
}

func (v *Validator) Port(field string, value int) *Validator {
	return v.Range(field, value, 1, 65535)
}

// OptionalPort treats zero as unset.
func (v *Validator) OptionalPort(field string, value int) *Validator {
	if value == 0 {
		return v
	}
	return v.Port(field, value)
}

func fieldsError(fields []FieldError) *errors.AppError {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	e := errors.Validation(strings.Join(parts, "; "))
	e.Details = map[string]any{"fields": fields}
	return e
}
