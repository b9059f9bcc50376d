package ingestion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	httperr "github.com/sift-lab/project-sift/internal/core/errors"
	"github.com/sift-lab/project-sift/internal/core/storage"
	"github.com/sift-lab/project-sift/internal/schema"
	"github.com/sift-lab/project-sift/internal/sink"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist signal"
)

// handlerError carries the structured HTTP error shape from a helper back to
// the handler. Helpers return this instead of writing to gin.Context
// directly, keeping them decoupled from HTTP.
type handlerError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *handlerError) Error() string {
	return e.message
}

// IngestHandler handles HTTP POST requests for single-signal ingestion.
func (s *Service) IngestHandler(c *gin.Context) {
	body, herr := s.readBody(c)
	if herr != nil {
		writeError(c, herr)
		return
	}

	var sig v1.Signal
	if err := c.ShouldBindJSON(&sig); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(body))
		writeError(c, &handlerError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		})
		return
	}

	enriched, err := s.Ingest(c.Request.Context(), &sig)
	if err != nil {
		writeError(c, toHandlerError(err))
		return
	}

	slog.Info("Signal accepted",
		"signal_id", enriched.ID,
		"schema_id", enriched.SchemaID,
		"subject", enriched.Subject(),
		"payload_size", len(body))

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": enriched.ID})
}

// IngestBatchHandler handles HTTP POST requests for batch ingestion.
func (s *Service) IngestBatchHandler(c *gin.Context) {
	body, herr := s.readBody(c)
	if herr != nil {
		writeError(c, herr)
		return
	}

	var sigs []*v1.Signal
	if err := c.ShouldBindJSON(&sigs); err != nil {
		slog.Warn("Invalid JSON batch received", "error", err, "payload_size", len(body))
		writeError(c, &handlerError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		})
		return
	}

	enriched, err := s.IngestBatch(c.Request.Context(), sigs)
	if err != nil {
		writeError(c, toHandlerError(err))
		return
	}

	slog.Info("Signal batch accepted", "count", len(enriched), "payload_size", len(body))

	ids := make([]string, len(enriched))
	for i, sig := range enriched {
		ids[i] = sig.ID
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "count": len(ids), "ids": ids})
}

// ListSignalsHandler returns a user's stored signal history. Only available
// when the active sink is backed by the durable store.
func (s *Service) ListSignalsHandler(c *gin.Context) {
	userID := c.Param("user_id")

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			writeError(c, &handlerError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpInvalidJsonError,
				message:    "limit must be an integer in 1..1000",
			})
			return
		}
		limit = parsed
	}

	sigs, err := s.reader.RetrieveSignalsByUser(c.Request.Context(), userID, limit)
	if err != nil {
		slog.Error("Failed to list signals", "error", err, "user_id", userID)
		writeError(c, &handlerError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    "Failed to list signals",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "count": len(sigs), "signals": sigs})
}

// readBody enforces the maximum body size and restores the body for binding.
func (s *Service) readBody(c *gin.Context) ([]byte, *handlerError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, &handlerError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, &handlerError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	return bodyBytes, nil
}

// toHandlerError maps domain errors from Ingest/IngestBatch to the HTTP
// error shape.
func toHandlerError(err error) *handlerError {
	var notFound *schema.NotFoundError
	if errors.As(err, &notFound) {
		return &handlerError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpSchemaNotFoundError,
			message:    err.Error(),
		}
	}

	var validation *schema.ValidationError
	if errors.As(err, &validation) {
		return &handlerError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    err.Error(),
			details:    validation.Details(),
		}
	}

	if errors.Is(err, storage.ErrDuplicate) {
		return &handlerError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpStorageError,
			message:    "Signal already exists",
		}
	}

	var storageErr *sink.StorageError
	if errors.As(err, &storageErr) {
		slog.Error("Sink rejected signal", "sink", storageErr.Sink, "error", err)
		return &handlerError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpStorageError,
			message:    msgPersistFailed,
		}
	}

	var ingestErr *IngestionError
	if errors.As(err, &ingestErr) && ingestErr.Err == nil {
		// Pre-sink rejection, currently only the batch size cap.
		return &handlerError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpBatchTooLargeError,
			message:    err.Error(),
		}
	}

	return &handlerError{
		statusCode: http.StatusInternalServerError,
		errorType:  httperr.HttpInternalError,
		message:    err.Error(),
	}
}

// writeError serializes a handlerError as the JSON HTTP response.
func writeError(c *gin.Context, err *handlerError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
