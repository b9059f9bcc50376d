package analysis

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	httperr "github.com/sift-lab/project-sift/internal/core/errors"
	"github.com/sift-lab/project-sift/internal/core/storage"
)

// RegisterRoutes registers the insight read routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/insights/:user_id", s.InsightHandler)
}

// InsightHandler returns the user's current insight, computing it on demand
// when none is stored or the stored one has expired.
func (s *Service) InsightHandler(c *gin.Context) {
	userID := c.Param("user_id")

	insight, err := s.Insight(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrInsightNotFound) {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpInsightNotFoundError,
				Message:   "No insight available for user",
			})
			return
		}
		slog.Error("Failed to resolve insight", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to resolve insight",
		})
		return
	}

	c.JSON(http.StatusOK, insight)
}
