package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/httputil"
	"github.com/croissant-tools/dlsim/internal/metrics"
	"github.com/croissant-tools/dlsim/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest        = "invalid_request"
	ErrCodeNotFound              = "not_found"
	ErrCodeConflict              = "conflict"
	ErrCodeMalformedDistribution = "malformed_distribution"
	ErrCodeEmbeddingUnavailable  = "embedding_unavailable"
	ErrCodeRateLimited           = "rate_limited"
	ErrCodeInternalError         = "internal_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondEngineError maps an error surfaced by the registry or one of the
// engines onto the API error taxonomy. Unrecognized errors are logged and
// reported as internal.
func respondEngineError(c *gin.Context, log *logrus.Logger, err error) {
	switch {
	case models.IsConfiguration(err):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, models.ErrProfileNotFound), errors.Is(err, models.ErrJobNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, models.ErrNoProfiles):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "at least two profiles must be registered")
	case errors.Is(err, models.ErrMalformedDistribution):
		respondError(c, http.StatusUnprocessableEntity, ErrCodeMalformedDistribution, err.Error())
	case errors.Is(err, models.ErrEmbeddingUnavailable):
		respondError(c, http.StatusServiceUnavailable, ErrCodeEmbeddingUnavailable, err.Error())
	case errors.Is(err, models.ErrJobNotFinished):
		respondError(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusServiceUnavailable, ErrCodeInternalError, "request canceled")
	default:
		log.WithError(err).Error("unhandled engine error")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
