package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/report"
)

// JobHandler serves the background job endpoints.
type JobHandler struct {
	jobs     JobScheduler
	runner   JobRunner
	archive  JobArchive // nil when no database is configured
	defaults models.Params
	log      *logrus.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(jobs JobScheduler, runner JobRunner, archive JobArchive, defaults models.Params, log *logrus.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, runner: runner, archive: archive, defaults: defaults, log: log}
}

// startParams decodes the optional override body of a job-start request. An
// empty body means server defaults.
func (h *JobHandler) startParams(c *gin.Context) (models.Params, bool) {
	if c.Request.ContentLength == 0 {
		return h.defaults, true
	}

	var overrides paramOverrides
	if err := c.ShouldBindJSON(&overrides); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return models.Params{}, false
	}

	p, err := overrides.apply(h.defaults)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return models.Params{}, false
	}

	return p, true
}

// StartReport handles POST /api/v1/jobs/report.
func (h *JobHandler) StartReport(c *gin.Context) {
	p, ok := h.startParams(c)
	if !ok {
		return
	}

	snapshot := h.jobs.Start(models.JobReport, p, h.runner.Report(p))
	c.JSON(http.StatusAccepted, snapshot)
}

// refineJobRequest names the pair a refine job operates on, with optional
// overrides kept for symmetry with the other job kinds.
type refineJobRequest struct {
	A string `json:"a"`
	B string `json:"b"`
	paramOverrides
}

// StartRefine handles POST /api/v1/jobs/refine.
func (h *JobHandler) StartRefine(c *gin.Context) {
	var req refineJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	for _, id := range []string{req.A, req.B} {
		if err := validatePathID(id); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "fields a and b are required")

			return
		}
	}
	if req.A == req.B {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "a and b must differ")

		return
	}

	p, err := req.apply(h.defaults)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	snapshot := h.jobs.Start(models.JobRefine, p, h.runner.Refine(req.A, req.B))
	c.JSON(http.StatusAccepted, snapshot)
}

// StartAnalysis handles POST /api/v1/jobs/analysis.
func (h *JobHandler) StartAnalysis(c *gin.Context) {
	p, ok := h.startParams(c)
	if !ok {
		return
	}

	snapshot := h.jobs.Start(models.JobAnalysis, p, h.runner.Analysis(p))
	c.JSON(http.StatusAccepted, snapshot)
}

// List handles GET /api/v1/jobs — the in-memory job table, newest first,
// without result payloads.
func (h *JobHandler) List(c *gin.Context) {
	jobs := h.jobs.List()
	for i := range jobs {
		jobs[i].Result = nil
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// Get handles GET /api/v1/jobs/:id — progress and status, without the result
// payload.
func (h *JobHandler) Get(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}

	j.Result = nil
	c.JSON(http.StatusOK, j)
}

// Result handles GET /api/v1/jobs/:id/result — the full job including its
// result once finished; before that it is a status echo.
func (h *JobHandler) Result(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, j)
}

// Download handles GET /api/v1/jobs/:id/download. Unfinished jobs conflict;
// finished jobs without a result (failures before any output) do too.
func (h *JobHandler) Download(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}

	if !j.Finished() {
		respondEngineError(c, h.log, models.ErrJobNotFinished)

		return
	}
	if j.Result == nil {
		respondError(c, http.StatusConflict, ErrCodeConflict, "job finished without a result")

		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.JobFilename(string(j.Kind), j.ID, time.Now())))
	c.JSON(http.StatusOK, j.Result)
}

// Cancel handles POST /api/v1/jobs/:id/cancel. Canceling a finished job is a
// no-op.
func (h *JobHandler) Cancel(c *gin.Context) {
	id := c.Param("id")

	if err := h.jobs.Cancel(id); err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "job not found")

			return
		}

		h.log.WithError(err).Error("canceling job")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"canceled": true})
}

// Archive handles GET /api/v1/jobs/archive — recent persisted jobs. Without
// a configured database the archive is simply empty.
func (h *JobHandler) Archive(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusOK, gin.H{"jobs": []models.Job{}, "count": 0})

		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "50"), 50)

	jobs, err := h.archive.RecentJobs(c.Request.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("listing archived jobs")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (h *JobHandler) lookup(c *gin.Context) (models.Job, bool) {
	j, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "job not found")

			return models.Job{}, false
		}

		h.log.WithError(err).Error("getting job")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return models.Job{}, false
	}

	return j, true
}
