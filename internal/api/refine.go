package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/refine"
	"github.com/croissant-tools/dlsim/internal/report"
)

// RefineHandler serves the structural refinement endpoints. Refinement is
// pure computation over registered profiles, so the handler calls the engine
// package directly.
type RefineHandler struct {
	registry ProfileRegistry
	builder  *report.Builder
	log      *logrus.Logger
}

// NewRefineHandler creates a RefineHandler.
func NewRefineHandler(registry ProfileRegistry, builder *report.Builder, log *logrus.Logger) *RefineHandler {
	return &RefineHandler{registry: registry, builder: builder, log: log}
}

// Get handles GET /api/v1/refine?a=&b= — the raw refinement result.
func (h *RefineHandler) Get(c *gin.Context) {
	res, ok := h.compare(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, res)
}

// Report handles GET /api/v1/refine/report — the refinement report document.
func (h *RefineHandler) Report(c *gin.Context) {
	res, ok := h.compare(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.builder.Refinement(res))
}

// Download handles GET /api/v1/refine/report/download — the report document
// served as an attachment named after the pair.
func (h *RefineHandler) Download(c *gin.Context) {
	res, ok := h.compare(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.RefinementFilename(res.ProfileA, res.ProfileB)))
	c.JSON(http.StatusOK, h.builder.Refinement(res))
}

// compare resolves the pair from the query and refines it, responding with
// the mapped error itself when anything fails.
func (h *RefineHandler) compare(c *gin.Context) (models.RefinementResult, bool) {
	idA, idB := c.Query("a"), c.Query("b")
	for _, id := range []string{idA, idB} {
		if err := validatePathID(id); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "query parameters a and b are required")

			return models.RefinementResult{}, false
		}
	}
	if idA == idB {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "a and b must differ")

		return models.RefinementResult{}, false
	}

	profA, err := h.registry.Get(idA)
	if err != nil {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "profile "+idA+" not found")

		return models.RefinementResult{}, false
	}
	profB, err := h.registry.Get(idB)
	if err != nil {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "profile "+idB+" not found")

		return models.RefinementResult{}, false
	}

	res, err := refine.Compare(profA, profB)
	if err != nil {
		respondEngineError(c, h.log, err)

		return models.RefinementResult{}, false
	}

	return res, true
}
