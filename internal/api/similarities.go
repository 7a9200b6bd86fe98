package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/similarity"
)

// SimilarityHandler serves the synchronous scoring endpoints.
type SimilarityHandler struct {
	registry ProfileRegistry
	engine   SimilarityEngine
	defaults models.Params
	log      *logrus.Logger
}

// NewSimilarityHandler creates a SimilarityHandler.
func NewSimilarityHandler(registry ProfileRegistry, engine SimilarityEngine, defaults models.Params, log *logrus.Logger) *SimilarityHandler {
	return &SimilarityHandler{registry: registry, engine: engine, defaults: defaults, log: log}
}

// batchResponse is the payload of the batch similarity endpoints.
type batchResponse struct {
	Results   []models.SimilarityResult `json:"results"`
	Weights   weightsEcho               `json:"weights"`
	Threshold float64                   `json:"threshold"`
	Stats     similarity.BatchStats     `json:"stats"`
}

// All handles GET /api/v1/similarities — every qualifying pair across the
// registry, with optional ?kw=&desc=&head=&th= overrides.
func (h *SimilarityHandler) All(c *gin.Context) {
	p, err := paramsFromQuery(c, h.defaults)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	profiles := h.registry.List()
	if len(profiles) < 2 {
		respondEngineError(c, h.log, models.ErrNoProfiles)

		return
	}

	results, stats, err := h.engine.ComputeAll(c.Request.Context(), profiles, p)
	if err != nil {
		respondEngineError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, batchResponse{
		Results:   results,
		Weights:   echoWeights(p),
		Threshold: p.Threshold,
		Stats:     stats,
	})
}

// selectRequest restricts scoring to pairs drawn from the listed profiles.
type selectRequest struct {
	IDs []string `json:"ids"`
	paramOverrides
}

// Select handles POST /api/v1/similarities/select.
func (h *SimilarityHandler) Select(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if len(req.IDs) < 2 {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "ids must name at least two profiles")

		return
	}

	p, err := req.apply(h.defaults)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	results, stats, err := h.engine.ComputeSubset(c.Request.Context(), h.registry.List(), req.IDs, p)
	if err != nil {
		respondEngineError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, batchResponse{
		Results:   results,
		Weights:   echoWeights(p),
		Threshold: p.Threshold,
		Stats:     stats,
	})
}

// Pair handles GET /api/v1/similarities/pair?a=&b= — the full scored result
// for one pair, returned whether or not it clears the threshold.
func (h *SimilarityHandler) Pair(c *gin.Context) {
	idA, idB := c.Query("a"), c.Query("b")
	for _, id := range []string{idA, idB} {
		if err := validatePathID(id); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "query parameters a and b are required")

			return
		}
	}
	if idA == idB {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "a and b must differ")

		return
	}

	p, err := paramsFromQuery(c, h.defaults)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	profA, err := h.registry.Get(idA)
	if err != nil {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "profile "+idA+" not found")

		return
	}
	profB, err := h.registry.Get(idB)
	if err != nil {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "profile "+idB+" not found")

		return
	}

	result, err := h.engine.ComputePair(c.Request.Context(), profA, profB, p)
	if err != nil {
		respondEngineError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":    result,
		"weights":   echoWeights(p),
		"threshold": p.Threshold,
	})
}
