package job

import (
	"context"
	"fmt"

	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/refine"
	"github.com/croissant-tools/dlsim/internal/report"
	"github.com/croissant-tools/dlsim/internal/similarity"
)

// Profiles yields the working set a job operates on. *registry.Registry
// satisfies it.
type Profiles interface {
	List() []*models.Profile
	Get(id string) (*models.Profile, error)
}

// Scorer computes weighted similarity over the working set.
// *similarity.Engine satisfies it.
type Scorer interface {
	ComputeAll(ctx context.Context, profiles []*models.Profile, p models.Params) ([]models.SimilarityResult, similarity.BatchStats, error)
}

// AnalysisResult is the envelope of a full-analysis job: the similarity
// report plus a refinement report for every qualifying pair. Pairs whose
// refinement failed are listed without aborting the rest.
type AnalysisResult struct {
	Similarity  *report.SimilarityReport   `json:"similarity"`
	Refinements []*report.RefinementReport `json:"refinements"`
	PairErrors  []models.PairError         `json:"pair_errors,omitempty"`
	Stats       similarity.BatchStats      `json:"stats"`
}

// Runner builds job bodies over the profile registry and the two engines.
// Progress is tracked per phase; messages carry the pair counts.
type Runner struct {
	profiles Profiles
	scorer   Scorer
	reports  *report.Builder
}

// NewRunner creates a Runner.
func NewRunner(profiles Profiles, scorer Scorer, reports *report.Builder) *Runner {
	return &Runner{profiles: profiles, scorer: scorer, reports: reports}
}

// Report returns the body of a similarity report job: score every pair in
// the registry and render the report document.
func (r *Runner) Report(p models.Params) RunFunc {
	return func(ctx context.Context, t *Tracker) (any, error) {
		t.SetTotal(2)
		t.SetMessage("scoring profile pairs")

		profiles := r.profiles.List()
		if len(profiles) < 2 {
			return nil, models.ErrNoProfiles
		}

		results, stats, err := r.scorer.ComputeAll(ctx, profiles, p)
		if err != nil {
			return nil, err
		}
		t.Advance()
		t.SetMessage(fmt.Sprintf("scored %d pairs (%d cached), building report", stats.Pairs, stats.CacheHits))

		doc := r.reports.Similarity(profiles, results, p)
		t.Advance()
		t.SetMessage(fmt.Sprintf("report ready: %d qualifying pairs", len(results)))

		return doc, nil
	}
}

// Refine returns the body of a single-pair refinement job.
func (r *Runner) Refine(a, b string) RunFunc {
	return func(ctx context.Context, t *Tracker) (any, error) {
		t.SetTotal(2)
		t.SetMessage(fmt.Sprintf("refining %s against %s", a, b))

		profA, err := r.profiles.Get(a)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", a, err)
		}
		profB, err := r.profiles.Get(b)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", b, err)
		}

		res, err := refine.Compare(profA, profB)
		if err != nil {
			return nil, err
		}
		t.Advance()
		t.SetMessage("building refinement report")

		doc := r.reports.Refinement(res)
		t.Advance()
		t.SetMessage("refinement report ready")

		return doc, nil
	}
}

// Analysis returns the body of a full-analysis job: score every pair, refine
// the qualifying ones with per-pair error tolerance, and bundle both reports.
// Cancellation during refinement keeps the envelope built so far.
func (r *Runner) Analysis(p models.Params) RunFunc {
	return func(ctx context.Context, t *Tracker) (any, error) {
		t.SetTotal(3)
		t.SetMessage("scoring profile pairs")

		profiles := r.profiles.List()
		if len(profiles) < 2 {
			return nil, models.ErrNoProfiles
		}

		results, stats, err := r.scorer.ComputeAll(ctx, profiles, p)
		if err != nil {
			return nil, err
		}
		t.Advance()
		t.SetMessage(fmt.Sprintf("refining %d qualifying pairs", len(results)))

		pairs := make([][2]string, 0, len(results))
		for _, res := range results {
			pairs = append(pairs, [2]string{res.ProfileA, res.ProfileB})
		}

		refined, failures, refineErr := refine.ComparePairs(ctx, profiles, pairs)
		t.Advance()
		t.SetMessage("building reports")

		envelope := &AnalysisResult{
			Similarity:  r.reports.Similarity(profiles, results, p),
			Refinements: make([]*report.RefinementReport, 0, len(refined)),
			PairErrors:  failures,
			Stats:       stats,
		}
		for _, res := range refined {
			envelope.Refinements = append(envelope.Refinements, r.reports.Refinement(res))
		}

		if refineErr != nil {
			return envelope, refineErr
		}

		t.Advance()
		t.SetMessage(fmt.Sprintf("analysis ready: %d pairs refined, %d failed", len(refined), len(failures)))

		return envelope, nil
	}
}
