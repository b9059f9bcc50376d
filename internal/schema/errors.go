package schema

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a schema ID does not resolve in the registry.
// Treated as a validation failure at the ingestion boundary.
var ErrNotFound = errors.New("schema not found")

// NotFoundError wraps ErrNotFound with the schema ID that failed to resolve.
type NotFoundError struct {
	SchemaID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("schema %q not found", e.SchemaID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError represents a signal validation failure. Always recoverable
// by the caller; never retried internally.
type ValidationError struct {
	SchemaID string `json:"schema_id,omitempty"`
	Version  int    `json:"version,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.SchemaID != "" {
		return fmt.Sprintf("attribute '%s': %s (schema %s v%d)", e.Field, e.Message, e.SchemaID, e.Version)
	}
	if e.Field != "" {
		return fmt.Sprintf("attribute '%s': %s", e.Field, e.Message)
	}
	return e.Message
}

// Details returns the structured fields for API error responses.
func (e *ValidationError) Details() map[string]interface{} {
	d := make(map[string]interface{})
	if e.SchemaID != "" {
		d["schema_id"] = e.SchemaID
	}
	if e.Field != "" {
		d["field"] = e.Field
	}
	return d
}

func newValidationError(schemaID string, version int, field, message string) *ValidationError {
	return &ValidationError{
		SchemaID: schemaID,
		Version:  version,
		Field:    field,
		Message:  message,
	}
}
