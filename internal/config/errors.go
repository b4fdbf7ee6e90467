package config

import "fmt"

// FieldError pairs a field path with the reason it failed validation, so
// CLI output can point at the offending setting.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}
