package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/dbpool"
	"github.com/croissant-tools/dlsim/internal/middleware"
	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/report"
	"github.com/croissant-tools/dlsim/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log      *logrus.Logger
	Pool     *dbpool.Pool // nil when no database is configured
	Hub      *ws.Hub
	Registry ProfileRegistry
	Engine   SimilarityEngine
	Reports  *report.Builder
	Jobs     JobScheduler
	Runner   JobRunner
	Archive  JobArchive // nil when no database is configured

	CORSOrigins     []string
	Version         string
	Defaults        models.Params
	RateLimitPerMin int

	EmbedProvider    string
	OllamaURL        string
	HeadlineModel    string
	DescriptionModel string
}

// maxBodySize caps request bodies; profile batches are the only large input.
const maxBodySize = 5 << 20 // 5 MB

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, deps.RateLimitPerMin).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (outside the API group, like the banner).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Registry, log, deps.Version, deps.EmbedProvider, deps.OllamaURL, deps.HeadlineModel, deps.DescriptionModel)
	profiles := NewProfileHandler(deps.Registry, log)
	similarities := NewSimilarityHandler(deps.Registry, deps.Engine, deps.Defaults, log)
	reports := NewReportHandler(deps.Registry, deps.Engine, deps.Reports, deps.Defaults, log)
	refinements := NewRefineHandler(deps.Registry, deps.Reports, log)
	jobs := NewJobHandler(deps.Jobs, deps.Runner, deps.Archive, deps.Defaults, log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// Profiles.
	api.POST("/profiles", profiles.Register)
	api.GET("/profiles", profiles.List)
	api.GET("/profiles/:id", profiles.Get)
	api.DELETE("/profiles/:id", profiles.Delete)

	// Similarities.
	api.GET("/similarities", similarities.All)
	api.POST("/similarities/select", similarities.Select)
	api.GET("/similarities/pair", similarities.Pair)

	// Similarity report.
	api.GET("/report", reports.Get)
	api.GET("/report/download", reports.Download)

	// Refinement.
	api.GET("/refine", refinements.Get)
	api.GET("/refine/report", refinements.Report)
	api.GET("/refine/report/download", refinements.Download)

	// Jobs.
	api.POST("/jobs/report", jobs.StartReport)
	api.POST("/jobs/refine", jobs.StartRefine)
	api.POST("/jobs/analysis", jobs.StartAnalysis)
	api.GET("/jobs", jobs.List)
	api.GET("/jobs/archive", jobs.Archive)
	api.GET("/jobs/:id", jobs.Get)
	api.GET("/jobs/:id/result", jobs.Result)
	api.GET("/jobs/:id/download", jobs.Download)
	api.POST("/jobs/:id/cancel", jobs.Cancel)

	// WebSocket job progress stream.
	api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	r.GET("/", banner(deps.Version))
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}

// banner serves the root service description.
func banner(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "dlsim",
			"version": version,
			"api":     "/api/v1",
		})
	}
}
