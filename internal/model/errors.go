package model

import "fmt"

// ValidationError reports a rejected field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Invalid creates a ValidationError
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
