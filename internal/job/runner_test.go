package job

import (
	"context"
	"strings"
	"testing"

	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/report"
	"github.com/croissant-tools/dlsim/internal/similarity"
)

type stubProfiles struct {
	profiles []*models.Profile
}

func (s *stubProfiles) List() []*models.Profile { return s.profiles }

func (s *stubProfiles) Get(id string) (*models.Profile, error) {
	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}

	return nil, models.ErrProfileNotFound
}

type stubScorer struct {
	results []models.SimilarityResult
	stats   similarity.BatchStats
	err     error
}

func (s *stubScorer) ComputeAll(context.Context, []*models.Profile, models.Params) ([]models.SimilarityResult, similarity.BatchStats, error) {
	return s.results, s.stats, s.err
}

func csvProfile(id string, keywords ...string) *models.Profile {
	return &models.Profile{
		ID:       id,
		Name:     id,
		Keywords: keywords,
		Distribution: []*models.ResourceNode{{
			Name:   id + ".csv",
			Kind:   models.KindFile,
			Format: models.FormatCSV,
			Columns: []models.Column{
				{Name: "city", Samples: []string{"berlin", "paris"}},
			},
		}},
	}
}

func TestRunner_ReportJob(t *testing.T) {
	profiles := &stubProfiles{profiles: []*models.Profile{
		csvProfile("alpha", "climate"),
		csvProfile("beta", "climate"),
	}}
	scorer := &stubScorer{
		results: []models.SimilarityResult{{
			ProfileA:        "alpha",
			ProfileB:        "beta",
			KeywordScore:    1,
			CombinedScore:   0.6,
			CommonKeywords:  []string{"climate"},
			PassesThreshold: true,
		}},
		stats: similarity.BatchStats{Pairs: 1},
	}
	runner := NewRunner(profiles, scorer, report.NewBuilder())
	m := NewManager(1, nil, nil, testLogger())

	snapshot := m.Start(models.JobReport, models.DefaultParams(), runner.Report(models.DefaultParams()))
	j := waitForStatus(t, m, snapshot.ID, models.JobCompleted)

	doc, ok := j.Result.(*report.SimilarityReport)
	if !ok {
		t.Fatalf("result type = %T, want *report.SimilarityReport", j.Result)
	}
	if len(doc.Links) != 1 {
		t.Fatalf("report links = %d, want 1", len(doc.Links))
	}
	if len(doc.Elements) != 2 {
		t.Errorf("report elements = %d, want 2", len(doc.Elements))
	}
	if j.Processed != j.Total {
		t.Errorf("progress = %d/%d, want complete", j.Processed, j.Total)
	}
	if !strings.Contains(j.Message, "1 qualifying pair") {
		t.Errorf("message = %q", j.Message)
	}
}

func TestRunner_ReportJob_NoProfiles(t *testing.T) {
	runner := NewRunner(&stubProfiles{}, &stubScorer{}, report.NewBuilder())
	m := NewManager(1, nil, nil, testLogger())

	snapshot := m.Start(models.JobReport, models.DefaultParams(), runner.Report(models.DefaultParams()))
	j := waitForStatus(t, m, snapshot.ID, models.JobFailed)

	if j.Error != models.ErrNoProfiles.Error() {
		t.Errorf("error = %q, want %q", j.Error, models.ErrNoProfiles)
	}
}

func TestRunner_RefineJob(t *testing.T) {
	profiles := &stubProfiles{profiles: []*models.Profile{
		csvProfile("alpha", "climate"),
		csvProfile("beta", "weather"),
	}}
	runner := NewRunner(profiles, &stubScorer{}, report.NewBuilder())
	m := NewManager(1, nil, nil, testLogger())

	snapshot := m.Start(models.JobRefine, models.DefaultParams(), runner.Refine("alpha", "beta"))
	j := waitForStatus(t, m, snapshot.ID, models.JobCompleted)

	doc, ok := j.Result.(*report.RefinementReport)
	if !ok {
		t.Fatalf("result type = %T, want *report.RefinementReport", j.Result)
	}
	if len(doc.Datasets) != 2 {
		t.Fatalf("datasets = %d, want 2", len(doc.Datasets))
	}
	if got := doc.Comparisons.CSV.SharedColumns; len(got) != 1 || got[0] != "city" {
		t.Errorf("shared columns = %v, want [city]", got)
	}
}

func TestRunner_RefineJob_UnknownProfile(t *testing.T) {
	profiles := &stubProfiles{profiles: []*models.Profile{csvProfile("alpha")}}
	runner := NewRunner(profiles, &stubScorer{}, report.NewBuilder())
	m := NewManager(1, nil, nil, testLogger())

	snapshot := m.Start(models.JobRefine, models.DefaultParams(), runner.Refine("alpha", "ghost"))
	j := waitForStatus(t, m, snapshot.ID, models.JobFailed)

	if !strings.Contains(j.Error, "ghost") {
		t.Errorf("error = %q, want the missing id named", j.Error)
	}
}

func TestRunner_AnalysisJob(t *testing.T) {
	profiles := &stubProfiles{profiles: []*models.Profile{
		csvProfile("alpha", "climate"),
		csvProfile("beta", "climate"),
	}}
	// One qualifying pair resolves; the other names a profile that has been
	// deleted since scoring and must fail without sinking the batch.
	scorer := &stubScorer{
		results: []models.SimilarityResult{
			{ProfileA: "alpha", ProfileB: "beta", CombinedScore: 0.8, PassesThreshold: true},
			{ProfileA: "alpha", ProfileB: "ghost", CombinedScore: 0.5, PassesThreshold: true},
		},
		stats: similarity.BatchStats{Pairs: 3, CacheHits: 1},
	}
	runner := NewRunner(profiles, scorer, report.NewBuilder())
	m := NewManager(1, nil, nil, testLogger())

	snapshot := m.Start(models.JobAnalysis, models.DefaultParams(), runner.Analysis(models.DefaultParams()))
	j := waitForStatus(t, m, snapshot.ID, models.JobCompleted)

	envelope, ok := j.Result.(*AnalysisResult)
	if !ok {
		t.Fatalf("result type = %T, want *AnalysisResult", j.Result)
	}
	if envelope.Similarity == nil || len(envelope.Similarity.Links) != 2 {
		t.Fatal("similarity report missing links")
	}
	if len(envelope.Refinements) != 1 {
		t.Fatalf("refinements = %d, want 1", len(envelope.Refinements))
	}
	if len(envelope.PairErrors) != 1 {
		t.Fatalf("pair errors = %d, want 1", len(envelope.PairErrors))
	}
	if envelope.PairErrors[0].ProfileB != "ghost" {
		t.Errorf("pair error = %+v, want the ghost pair", envelope.PairErrors[0])
	}
	if envelope.Stats.Pairs != 3 || envelope.Stats.CacheHits != 1 {
		t.Errorf("stats = %+v, want scoring stats echoed", envelope.Stats)
	}
}
