// Command dlsim-server runs the dataset similarity HTTP API.
//
// Configuration comes from environment variables (see internal/config); a
// .env file in the working directory is honored when present. The Postgres
// archive is optional: without DATABASE_URL the server keeps profiles and
// job history in memory only.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/api"
	"github.com/croissant-tools/dlsim/internal/cache"
	"github.com/croissant-tools/dlsim/internal/config"
	"github.com/croissant-tools/dlsim/internal/db"
	"github.com/croissant-tools/dlsim/internal/db/migrations"
	"github.com/croissant-tools/dlsim/internal/dbpool"
	"github.com/croissant-tools/dlsim/internal/embed"
	"github.com/croissant-tools/dlsim/internal/job"
	"github.com/croissant-tools/dlsim/internal/registry"
	"github.com/croissant-tools/dlsim/internal/report"
	"github.com/croissant-tools/dlsim/internal/similarity"
	"github.com/croissant-tools/dlsim/internal/store"
	"github.com/croissant-tools/dlsim/internal/ws"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}

	log := newLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Postgres archive. When configured, profiles survive restarts
	// and finished jobs are queryable via /jobs/archive.
	var (
		pool *dbpool.Pool
		st   *store.Store
	)
	if cfg.ArchiveEnabled() {
		pool, err = dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
		if err != nil {
			log.WithError(err).Fatal("connecting to database")
		}

		if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
			log.WithError(err).Fatal("running migrations")
		}
		log.WithField("schema_version", db.SchemaVersion()).Info("database ready")

		st = store.New(store.Base{Pool: pool, Log: log})
	} else {
		log.Info("DATABASE_URL not set, running without persistence")
	}

	resultCache, err := cache.New(cfg.CacheSize)
	if err != nil {
		log.WithError(err).Fatal("creating result cache")
	}

	// A typed nil *store.Store must not end up inside the interface values;
	// the consumers treat a nil interface as "no store".
	var profileStore registry.ProfileStore
	if st != nil {
		profileStore = st
	}

	reg := registry.New(resultCache, profileStore, log)
	if st != nil {
		profiles, err := st.LoadProfiles(ctx)
		if err != nil {
			log.WithError(err).Fatal("loading persisted profiles")
		}
		reg.Bootstrap(profiles)
	}

	provider, headlineModel, descriptionModel := newEmbedProvider(cfg, log)
	engine := similarity.NewEngine(provider, resultCache, log, cfg.SimilarityWorkers)
	reports := report.NewBuilder()

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	var archiver job.Archiver
	if st != nil {
		archiver = st
	}
	manager := job.NewManager(cfg.JobWorkers, hub, archiver, log)
	runner := job.NewRunner(reg, engine, reports)

	var jobArchive api.JobArchive
	if st != nil {
		jobArchive = st
	}

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:      log,
		Pool:     pool,
		Hub:      hub,
		Registry: reg,
		Engine:   engine,
		Reports:  reports,
		Jobs:     manager,
		Runner:   runner,
		Archive:  jobArchive,

		CORSOrigins:     cfg.CORSOrigins,
		Version:         config.Version,
		Defaults:        cfg.Defaults,
		RateLimitPerMin: cfg.RateLimitPerMin,

		EmbedProvider:    cfg.EmbedProvider,
		OllamaURL:        cfg.OllamaURL,
		HeadlineModel:    headlineModel,
		DescriptionModel: descriptionModel,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
		// Batch scoring against a cold embedding backend can legitimately
		// take minutes; the write timeout has to cover it.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.Addr(),
			"version":  config.Version,
			"provider": cfg.EmbedProvider,
		}).Info("server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-stop
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}

	// Let running jobs finish (and archive) before tearing anything down.
	manager.Shutdown(shutdownCtx)
	hub.Shutdown()
	provider.Close()
	cancel()

	if pool != nil {
		pool.Close()
	}

	log.Info("server stopped")
}

// newEmbedProvider wires the configured embedding backend and returns the
// model names actually in use, for the health endpoints.
func newEmbedProvider(cfg *config.Config, log *logrus.Logger) (*embed.Provider, string, string) {
	if cfg.EmbedProvider == config.ProviderGemini {
		key := cfg.GeminiAPIKey.Value()
		p := embed.NewProvider(log,
			embed.GeminiBuilder(key, cfg.GeminiHeadlineModel),
			embed.GeminiBuilder(key, cfg.GeminiDescriptionModel),
		)

		return p, cfg.GeminiHeadlineModel, cfg.GeminiDescriptionModel
	}

	p := embed.NewProvider(log,
		embed.OllamaBuilder(cfg.OllamaURL, cfg.HeadlineModel),
		embed.OllamaBuilder(cfg.OllamaURL, cfg.DescriptionModel),
	)

	return p, cfg.HeadlineModel, cfg.DescriptionModel
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}
