package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/croissant"
	"github.com/croissant-tools/dlsim/internal/models"
)

// ProfileHandler serves the profile registry endpoints.
type ProfileHandler struct {
	registry ProfileRegistry
	log      *logrus.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(registry ProfileRegistry, log *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{registry: registry, log: log}
}

// Register handles POST /api/v1/profiles. The body is a JSON array of
// Croissant documents; the whole batch is parsed before anything is
// registered, so a malformed document rejects the request without partial
// registration.
func (h *ProfileHandler) Register(c *gin.Context) {
	var docs []json.RawMessage
	if err := c.ShouldBindJSON(&docs); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "request body must be a JSON array of Croissant documents")

		return
	}

	if len(docs) == 0 {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "at least one document is required")

		return
	}

	parsed := make([]*models.Profile, 0, len(docs))
	for i, raw := range docs {
		p, err := croissant.ParseProfile(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, fmt.Sprintf("document %d: %v", i, err))

			return
		}
		parsed = append(parsed, p)
	}

	created := 0
	summaries := make([]models.ProfileSummary, 0, len(parsed))
	for _, p := range parsed {
		isNew, err := h.registry.Put(c.Request.Context(), p)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, fmt.Sprintf("profile %s: %v", p.ID, err))

			return
		}
		if isNew {
			created++
		}
		summaries = append(summaries, p.Summary())
	}

	h.log.WithFields(logrus.Fields{"created": created, "replaced": len(parsed) - created}).Info("profiles registered")

	c.JSON(http.StatusCreated, gin.H{
		"profiles": summaries,
		"created":  created,
		"replaced": len(parsed) - created,
	})
}

// List handles GET /api/v1/profiles.
func (h *ProfileHandler) List(c *gin.Context) {
	summaries := h.registry.Summaries()

	c.JSON(http.StatusOK, gin.H{"profiles": summaries, "count": len(summaries)})
}

// Get handles GET /api/v1/profiles/:id.
func (h *ProfileHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, err := h.registry.Get(id)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")

			return
		}

		h.log.WithError(err).Error("getting profile")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/v1/profiles/:id.
func (h *ProfileHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	if err := h.registry.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")

			return
		}

		h.log.WithError(err).Error("deleting profile")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithField("profile_id", id).Info("profile removed")

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
