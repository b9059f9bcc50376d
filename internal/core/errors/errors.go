package errors

const (
	HttpInternalError        = "internal_error"
	HttpInvalidJsonError     = "invalid_json"
	HttpSchemaNotFoundError  = "schema_not_found"
	HttpValidationError      = "signal_validation_failed"
	HttpStorageError         = "storage_failed"
	HttpBatchTooLargeError   = "batch_too_large"
	HttpJobNotFoundError     = "job_not_found"
	HttpInsightNotFoundError = "insight_not_found"
)

// ErrorResponse is the error response body for API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
