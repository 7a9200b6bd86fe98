// Package api provides the HTTP surface of the similarity service.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/config"
	"github.com/croissant-tools/dlsim/internal/dbpool"
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	pool             *dbpool.Pool
	registry         ProfileRegistry
	log              *logrus.Logger
	httpClient       *http.Client
	version          string
	startTime        time.Time
	embedProvider    string
	ollamaURL        string
	headlineModel    string
	descriptionModel string
}

// NewHealthHandler creates a HealthHandler with the given dependencies.
// A nil pool means the archive store is not configured.
func NewHealthHandler(pool *dbpool.Pool, registry ProfileRegistry, log *logrus.Logger, version, embedProvider, ollamaURL, headlineModel, descriptionModel string) *HealthHandler {
	return &HealthHandler{
		pool:             pool,
		registry:         registry,
		log:              log,
		httpClient:       &http.Client{Timeout: 2 * time.Second},
		version:          version,
		startTime:        time.Now(),
		embedProvider:    embedProvider,
		ollamaURL:        ollamaURL,
		headlineModel:    headlineModel,
		descriptionModel: descriptionModel,
	}
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	Embeddings    string  `json:"embeddings"`
	Profiles      int     `json:"profiles"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Liveness handles GET /api/v1/health — status with db, embeddings, registry
// size and uptime.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Database:      "connected",
		Embeddings:    fmt.Sprintf("%s (%s, %s)", h.embedProvider, h.headlineModel, h.descriptionModel),
		Profiles:      h.registry.Len(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	// Best-effort database ping (non-fatal for liveness).
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pool.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	} else {
		resp.Database = "not_configured"
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready — checks the archive database, its
// schema, and the embedding backend. An unconfigured database never blocks
// readiness; an unreachable embedding backend does, because scoring depends
// on it.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"database": "ok",
		"schema":   "ok",
		"embedder": "ok",
	}
	status := "ready"
	statusCode := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if h.pool == nil {
		checks["database"] = "not_configured"
		checks["schema"] = "not_configured"
	} else {
		if err := h.pool.HealthCheck(ctx); err != nil {
			h.log.WithError(err).Error("readiness: database health check failed")
			checks["database"] = "error"
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
		}

		if checks["database"] == "ok" {
			if err := h.checkSchema(ctx); err != nil {
				h.log.WithError(err).Error("readiness: schema check failed")
				checks["schema"] = "error"
				status = "not_ready"
				statusCode = http.StatusServiceUnavailable
			}
		} else {
			checks["schema"] = "unknown"
		}
	}

	if err := h.checkEmbedder(); err != nil {
		h.log.WithError(err).Error("readiness: embedder check failed")
		checks["embedder"] = "error"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, readinessResponse{
		Status: status,
		Checks: checks,
	})
}

// checkSchema verifies the migrated schema by querying the profiles table.
func (h *HealthHandler) checkSchema(ctx context.Context) error {
	var count int
	err := h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM profiles").Scan(&count)
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}

	return nil
}

// checkEmbedder probes the embedding backend. Ollama exposes a version
// endpoint; for Gemini only the configuration can be checked without
// spending quota.
func (h *HealthHandler) checkEmbedder() error {
	if h.embedProvider != config.ProviderOllama {
		return nil
	}
	if h.ollamaURL == "" {
		return fmt.Errorf("ollama URL not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.ollamaURL+"/api/version", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	return nil
}
