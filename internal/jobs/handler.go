package jobs

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	httperr "github.com/sift-lab/project-sift/internal/core/errors"
)

// Handler exposes the orchestrator's control surface over HTTP.
type Handler struct {
	orchestrator *Orchestrator
}

// NewHandler wraps the orchestrator for route registration.
func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// RegisterRoutes registers the analysis job control routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/analysis/batch", h.ProcessBatchHandler)
	r.POST("/v1/analysis/jobs", h.StartJobHandler)
	r.GET("/v1/analysis/jobs", h.ListJobsHandler)
	r.GET("/v1/analysis/jobs/:id", h.GetJobHandler)
	r.DELETE("/v1/analysis/jobs/:id", h.CancelJobHandler)
	r.POST("/v1/analysis/pause", h.PauseHandler)
	r.POST("/v1/analysis/resume", h.ResumeHandler)
}

type batchRequest struct {
	MaxUsers          int    `json:"max_users"`
	MaxDuration       string `json:"max_duration"`
	DelayBetweenUsers string `json:"delay_between_users"`
}

type startJobRequest struct {
	UsersPerBatch int    `json:"users_per_batch"`
	Interval      string `json:"interval"`
	MaxIterations int    `json:"max_iterations"`
}

// ProcessBatchHandler runs one synchronous batch and returns its result.
func (h *Handler) ProcessBatchHandler(c *gin.Context) {
	req := batchRequest{MaxUsers: 50}
	if err := bindOptionalJSON(c, &req); err != nil {
		writeBadRequest(c, "Invalid JSON body")
		return
	}
	if req.MaxUsers <= 0 {
		writeBadRequest(c, "max_users must be > 0")
		return
	}
	maxDuration, err := parseOptionalDuration(req.MaxDuration)
	if err != nil {
		writeBadRequest(c, "invalid max_duration")
		return
	}
	delay, err := parseOptionalDuration(req.DelayBetweenUsers)
	if err != nil {
		writeBadRequest(c, "invalid delay_between_users")
		return
	}

	result, err := h.orchestrator.ProcessBatch(c.Request.Context(), req.MaxUsers, maxDuration, delay)
	if err != nil {
		slog.Error("Batch processing failed", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Batch processing failed",
			Details:   gin.H{"partial": result},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// StartJobHandler registers and launches a continuous job.
func (h *Handler) StartJobHandler(c *gin.Context) {
	req := startJobRequest{UsersPerBatch: 50, Interval: "1m"}
	if err := bindOptionalJSON(c, &req); err != nil {
		writeBadRequest(c, "Invalid JSON body")
		return
	}
	if req.UsersPerBatch <= 0 {
		writeBadRequest(c, "users_per_batch must be > 0")
		return
	}
	interval, err := time.ParseDuration(req.Interval)
	if err != nil || interval <= 0 {
		writeBadRequest(c, "invalid interval")
		return
	}

	jobID := h.orchestrator.StartContinuous(req.UsersPerBatch, interval, req.MaxIterations)
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// ListJobsHandler returns all known jobs, terminal ones included.
func (h *Handler) ListJobsHandler(c *gin.Context) {
	jobs := h.orchestrator.Jobs()
	c.JSON(http.StatusOK, gin.H{"count": len(jobs), "jobs": jobs})
}

// GetJobHandler returns one job snapshot.
func (h *Handler) GetJobHandler(c *gin.Context) {
	job, err := h.orchestrator.GetJob(c.Param("id"))
	if err != nil {
		writeJobNotFound(c)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CancelJobHandler cancels a running continuous job.
func (h *Handler) CancelJobHandler(c *gin.Context) {
	if err := h.orchestrator.CancelContinuous(c.Param("id")); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			writeJobNotFound(c)
			return
		}
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to cancel job",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(StatusCancelled)})
}

// PauseHandler pauses the scheduled processing path.
func (h *Handler) PauseHandler(c *gin.Context) {
	h.orchestrator.PauseScheduled()
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

// ResumeHandler resumes the scheduled processing path.
func (h *Handler) ResumeHandler(c *gin.Context) {
	h.orchestrator.ResumeScheduled()
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

// bindOptionalJSON binds the body when present; an empty body keeps the
// request defaults.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}

func parseOptionalDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

func writeBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidJsonError,
		Message:   msg,
	})
}

func writeJobNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, httperr.ErrorResponse{
		ErrorType: httperr.HttpJobNotFoundError,
		Message:   "Job not found",
	})
}
