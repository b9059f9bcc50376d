// Package ingestion accepts behavioral signals, validates them against the
// schema registry, enriches them, and hands them to the configured sink.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/core/storage"
	"github.com/sift-lab/project-sift/internal/schema"
	"github.com/sift-lab/project-sift/internal/sink"
)

// Synthetic attributes stamped on every enriched signal for downstream
// traceability.
const (
	attrIngestedAt = "_ingested_at"
	attrSchemaMark = "_schema"
)

// Notifier receives a fire-and-forget notification after each successful
// ingestion. Implementations must not block.
type Notifier interface {
	SignalIngested(ctx context.Context, sig *v1.Signal)
}

type Service struct {
	validator        *schema.Validator
	sink             sink.SignalSink
	reader           storage.SignalStore // optional, enables history reads
	notifier         Notifier            // optional
	maxBatchSize     int
	maxBodySizeBytes int
	now              func() time.Time
}

// NewService wires the ingestion service. reader and notifier may be nil:
// without a reader the history endpoint is not registered, without a
// notifier no post-ingest events are published.
func NewService(val *schema.Validator, snk sink.SignalSink, reader storage.SignalStore, notifier Notifier, maxBatchSize, maxBodySizeMB int) *Service {
	if val == nil {
		panic("ingestion: validator must not be nil")
	}
	if snk == nil {
		panic("ingestion: sink must not be nil")
	}
	if maxBatchSize <= 0 {
		maxBatchSize = 100
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		validator:        val,
		sink:             snk,
		reader:           reader,
		notifier:         notifier,
		maxBatchSize:     maxBatchSize,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		now:              time.Now,
	}
}

// RegisterRoutes registers the ingestion routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/signals", s.IngestHandler)
	r.POST("/v1/signals/batch", s.IngestBatchHandler)
	if s.reader != nil {
		r.GET("/v1/signals/:user_id", s.ListSignalsHandler)
	}
}

// Ingest validates, enriches, and persists one signal, returning the
// enriched record. Validation and storage errors pass through untouched;
// anything unexpected is wrapped in an IngestionError.
func (s *Service) Ingest(ctx context.Context, sig *v1.Signal) (*v1.Signal, error) {
	if _, err := s.validator.Validate(sig); err != nil {
		observeRejection(err)
		return nil, err
	}
	s.enrich(sig)

	if err := s.sink.Accept(ctx, sig); err != nil {
		return nil, s.classify("accept signal", err)
	}

	signalsAccepted.WithLabelValues(sig.SchemaID).Inc()
	if s.notifier != nil {
		s.notifier.SignalIngested(ctx, sig)
	}
	return sig, nil
}

// IngestBatch validates every signal, then hands the whole list to the sink
// in a single call. An oversized batch fails before any validation or sink
// work. A single invalid signal fails the whole batch.
func (s *Service) IngestBatch(ctx context.Context, sigs []*v1.Signal) ([]*v1.Signal, error) {
	if len(sigs) > s.maxBatchSize {
		signalsRejected.WithLabelValues(reasonBatchLimit).Inc()
		return nil, ingestionErr(fmt.Sprintf("batch size exceeds limit of %d", s.maxBatchSize), nil)
	}

	for _, sig := range sigs {
		if _, err := s.validator.Validate(sig); err != nil {
			observeRejection(err)
			return nil, err
		}
	}
	for _, sig := range sigs {
		s.enrich(sig)
	}

	if err := s.sink.AcceptBatch(ctx, sigs); err != nil {
		return nil, s.classify("accept batch", err)
	}

	batchSizes.Observe(float64(len(sigs)))
	for _, sig := range sigs {
		signalsAccepted.WithLabelValues(sig.SchemaID).Inc()
		if s.notifier != nil {
			s.notifier.SignalIngested(ctx, sig)
		}
	}
	return sigs, nil
}

// enrich assigns an id if absent and stamps the traceability attributes.
// The validator has already defaulted Timestamp, IngestedAt, and Version.
func (s *Service) enrich(sig *v1.Signal) {
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	sig.SetAttr(attrIngestedAt, sig.IngestedAt.UTC().Format(time.RFC3339))
	sig.SetAttr(attrSchemaMark, fmt.Sprintf("%s:v%d", sig.SchemaID, sig.Version))
}

// classify keeps domain errors untouched and wraps everything else.
func (s *Service) classify(op string, err error) error {
	var storageErr *sink.StorageError
	if errors.As(err, &storageErr) {
		sinkFailures.WithLabelValues(storageErr.Sink).Inc()
		return err
	}
	var validationErr *schema.ValidationError
	if errors.As(err, &validationErr) || errors.Is(err, schema.ErrNotFound) {
		return err
	}
	slog.Error("Unexpected ingestion failure", "op", op, "error", err)
	return ingestionErr(op, err)
}

// observeRejection records why a signal never reached the sink.
func observeRejection(err error) {
	if errors.Is(err, schema.ErrNotFound) {
		signalsRejected.WithLabelValues(reasonSchema).Inc()
		return
	}
	signalsRejected.WithLabelValues(reasonValidation).Inc()
}
