// Package validation checks request payloads field by field and reports
// every failure in a single Validation error.
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/vcubone/library-boot/internal/apperr"
)

// FieldError describes a validation failure for a field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors holds the field errors in the order they were found.
type Errors struct {
	Fields []FieldError
}

// Error renders the failures as "field - message;" pairs.
func (e *Errors) Error() string {
	var b strings.Builder
	for _, f := range e.Fields {
		b.WriteString(f.Field)
		b.WriteString(" - ")
		b.WriteString(f.Message)
		b.WriteString(";")
	}
	return b.String()
}

// Validator collects field errors.
type Validator struct {
	errs Errors
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

// Reject records a failure for field.
func (v *Validator) Reject(field, message string) {
	v.errs.Fields = append(v.errs.Fields, FieldError{Field: field, Message: message})
}

// NotEmpty rejects an empty or whitespace-only value.
func (v *Validator) NotEmpty(field, value, message string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.Reject(field, message)
	}
	return v
}

// Length rejects a value whose rune count is outside [min, max].
func (v *Validator) Length(field, value string, min, max int, message string) *Validator {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		v.Reject(field, message)
	}
	return v
}

// Min rejects a value below min.
func (v *Validator) Min(field string, value, min int, message string) *Validator {
	if value < min {
		v.Reject(field, message)
	}
	return v
}

// Valid reports whether no field failed.
func (v *Validator) Valid() bool {
	return len(v.errs.Fields) == 0
}

// Fields returns the collected failures.
func (v *Validator) Fields() []FieldError {
	return v.errs.Fields
}

// Err returns nil when valid, otherwise a Validation error whose message
// lists every failing field.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	errs := v.errs
	return apperr.Wrap(apperr.KindValidation, errs.Error(), &errs)
}
