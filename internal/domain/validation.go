package domain

import "fmt"

// ValidationError reports a single field that failed a business rule after
// normalization. It maps to a 400 at the HTTP layer.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
