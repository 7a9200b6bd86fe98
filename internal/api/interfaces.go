package api

import (
	"context"

	"github.com/croissant-tools/dlsim/internal/job"
	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/similarity"
)

// ProfileRegistry defines the registry operations used by the handlers.
// *registry.Registry satisfies it.
type ProfileRegistry interface {
	Put(ctx context.Context, p *models.Profile) (bool, error)
	Get(id string) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
	List() []*models.Profile
	Summaries() []models.ProfileSummary
	Len() int
}

// SimilarityEngine defines the scoring operations used by the similarity and
// report handlers. *similarity.Engine satisfies it.
type SimilarityEngine interface {
	ComputePair(ctx context.Context, a, b *models.Profile, p models.Params) (models.SimilarityResult, error)
	ComputeAll(ctx context.Context, profiles []*models.Profile, p models.Params) ([]models.SimilarityResult, similarity.BatchStats, error)
	ComputeSubset(ctx context.Context, profiles []*models.Profile, ids []string, p models.Params) ([]models.SimilarityResult, similarity.BatchStats, error)
}

// JobScheduler defines the job table operations used by JobHandler.
// *job.Manager satisfies it.
type JobScheduler interface {
	Start(kind models.JobKind, p models.Params, run job.RunFunc) models.Job
	Get(id string) (models.Job, error)
	List() []models.Job
	Cancel(id string) error
}

// JobRunner builds the bodies of the three job kinds. *job.Runner satisfies
// it.
type JobRunner interface {
	Report(p models.Params) job.RunFunc
	Refine(a, b string) job.RunFunc
	Analysis(p models.Params) job.RunFunc
}

// JobArchive lists persisted terminal jobs. *store.Store satisfies it; a nil
// archive means no database is configured.
type JobArchive interface {
	RecentJobs(ctx context.Context, limit int) ([]models.Job, error)
}
