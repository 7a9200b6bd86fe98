package api_test

import (
	"context"

	"github.com/croissant-tools/dlsim/internal/job"
	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/similarity"
)

// mockRegistry implements api.ProfileRegistry for testing.
type mockRegistry struct {
	putFn       func(ctx context.Context, p *models.Profile) (bool, error)
	getFn       func(id string) (*models.Profile, error)
	deleteFn    func(ctx context.Context, id string) error
	listFn      func() []*models.Profile
	summariesFn func() []models.ProfileSummary
	lenFn       func() int
}

func (m *mockRegistry) Put(ctx context.Context, p *models.Profile) (bool, error) {
	return m.putFn(ctx, p)
}

func (m *mockRegistry) Get(id string) (*models.Profile, error) {
	return m.getFn(id)
}

func (m *mockRegistry) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockRegistry) List() []*models.Profile {
	return m.listFn()
}

func (m *mockRegistry) Summaries() []models.ProfileSummary {
	return m.summariesFn()
}

func (m *mockRegistry) Len() int {
	if m.lenFn == nil {
		return 0
	}

	return m.lenFn()
}

// registryOf builds a mockRegistry backed by the given profiles.
func registryOf(profiles ...*models.Profile) *mockRegistry {
	return &mockRegistry{
		getFn: func(id string) (*models.Profile, error) {
			for _, p := range profiles {
				if p.ID == id {
					return p, nil
				}
			}

			return nil, models.ErrProfileNotFound
		},
		listFn: func() []*models.Profile { return profiles },
		summariesFn: func() []models.ProfileSummary {
			out := make([]models.ProfileSummary, 0, len(profiles))
			for _, p := range profiles {
				out = append(out, p.Summary())
			}

			return out
		},
		lenFn: func() int { return len(profiles) },
	}
}

// mockEngine implements api.SimilarityEngine for testing.
type mockEngine struct {
	computePairFn   func(ctx context.Context, a, b *models.Profile, p models.Params) (models.SimilarityResult, error)
	computeAllFn    func(ctx context.Context, profiles []*models.Profile, p models.Params) ([]models.SimilarityResult, similarity.BatchStats, error)
	computeSubsetFn func(ctx context.Context, profiles []*models.Profile, ids []string, p models.Params) ([]models.SimilarityResult, similarity.BatchStats, error)
}

func (m *mockEngine) ComputePair(ctx context.Context, a, b *models.Profile, p models.Params) (models.SimilarityResult, error) {
	return m.computePairFn(ctx, a, b, p)
}

func (m *mockEngine) ComputeAll(ctx context.Context, profiles []*models.Profile, p models.Params) ([]models.SimilarityResult, similarity.BatchStats, error) {
	return m.computeAllFn(ctx, profiles, p)
}

func (m *mockEngine) ComputeSubset(ctx context.Context, profiles []*models.Profile, ids []string, p models.Params) ([]models.SimilarityResult, similarity.BatchStats, error) {
	return m.computeSubsetFn(ctx, profiles, ids, p)
}

// mockScheduler implements api.JobScheduler for testing.
type mockScheduler struct {
	startFn  func(kind models.JobKind, p models.Params, run job.RunFunc) models.Job
	getFn    func(id string) (models.Job, error)
	listFn   func() []models.Job
	cancelFn func(id string) error
}

func (m *mockScheduler) Start(kind models.JobKind, p models.Params, run job.RunFunc) models.Job {
	return m.startFn(kind, p, run)
}

func (m *mockScheduler) Get(id string) (models.Job, error) {
	return m.getFn(id)
}

func (m *mockScheduler) List() []models.Job {
	return m.listFn()
}

func (m *mockScheduler) Cancel(id string) error {
	return m.cancelFn(id)
}

// mockRunner implements api.JobRunner; each body records its arguments and
// returns a no-op RunFunc.
type mockRunner struct {
	reportParams   []models.Params
	refinePairs    [][2]string
	analysisParams []models.Params
}

func (m *mockRunner) Report(p models.Params) job.RunFunc {
	m.reportParams = append(m.reportParams, p)

	return func(context.Context, *job.Tracker) (any, error) { return nil, nil }
}

func (m *mockRunner) Refine(a, b string) job.RunFunc {
	m.refinePairs = append(m.refinePairs, [2]string{a, b})

	return func(context.Context, *job.Tracker) (any, error) { return nil, nil }
}

func (m *mockRunner) Analysis(p models.Params) job.RunFunc {
	m.analysisParams = append(m.analysisParams, p)

	return func(context.Context, *job.Tracker) (any, error) { return nil, nil }
}

// mockArchive implements api.JobArchive for testing.
type mockArchive struct {
	recentFn func(ctx context.Context, limit int) ([]models.Job, error)
}

func (m *mockArchive) RecentJobs(ctx context.Context, limit int) ([]models.Job, error) {
	return m.recentFn(ctx, limit)
}
