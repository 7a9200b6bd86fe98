package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/report"
)

// ReportHandler serves the synchronous similarity report endpoints.
type ReportHandler struct {
	registry ProfileRegistry
	engine   SimilarityEngine
	builder  *report.Builder
	defaults models.Params
	log      *logrus.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(registry ProfileRegistry, engine SimilarityEngine, builder *report.Builder, defaults models.Params, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{registry: registry, engine: engine, builder: builder, defaults: defaults, log: log}
}

// Get handles GET /api/v1/report.
func (h *ReportHandler) Get(c *gin.Context) {
	doc, ok := h.build(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Download handles GET /api/v1/report/download — the same document served as
// a timestamped attachment.
func (h *ReportHandler) Download(c *gin.Context) {
	doc, ok := h.build(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.SimilarityFilename(time.Now())))
	c.JSON(http.StatusOK, doc)
}

// build scores the registry and renders the report document, responding with
// the mapped error itself when anything fails.
func (h *ReportHandler) build(c *gin.Context) (*report.SimilarityReport, bool) {
	p, err := paramsFromQuery(c, h.defaults)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return nil, false
	}

	profiles := h.registry.List()
	if len(profiles) < 2 {
		respondEngineError(c, h.log, models.ErrNoProfiles)

		return nil, false
	}

	results, stats, err := h.engine.ComputeAll(c.Request.Context(), profiles, p)
	if err != nil {
		respondEngineError(c, h.log, err)

		return nil, false
	}

	h.log.WithFields(logrus.Fields{"pairs": stats.Pairs, "cache_hits": stats.CacheHits, "links": len(results)}).Debug("report built")

	return h.builder.Similarity(profiles, results, p), true
}
