package ingestion

import "fmt"

// IngestionError wraps unexpected failures during ingestion orchestration so
// callers have one error family to catch at the boundary. Domain errors
// (validation, schema-not-found, storage) pass through unwrapped.
type IngestionError struct {
	Op  string
	Err error
}

func (e *IngestionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ingestion: %s", e.Op)
	}
	return fmt.Sprintf("ingestion: %s: %v", e.Op, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

func ingestionErr(op string, err error) *IngestionError {
	return &IngestionError{Op: op, Err: err}
}
