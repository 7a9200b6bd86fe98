package report

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/croissant-tools/dlsim/internal/models"
)

var fixedTime = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func fixedBuilder() *Builder {
	return &Builder{now: func() time.Time { return fixedTime }}
}

func TestBuilder_Similarity(t *testing.T) {
	profiles := []*models.Profile{
		{ID: "b", Name: "Profile B", Keywords: []string{"x"}},
		{ID: "a", Name: "Profile A", Headline: "head", Keywords: []string{"x", "y"}},
	}
	results := []models.SimilarityResult{
		{
			ProfileA:         "a",
			ProfileB:         "b",
			KeywordScore:     0.123456,
			DescriptionScore: 0.5,
			HeadlineScore:    0,
			CombinedScore:    0.98765449,
			CommonKeywords:   []string{"x"},
			UniqueToA:        []string{"y"},
			PassesThreshold:  true,
		},
	}

	rep := fixedBuilder().Similarity(profiles, results, models.DefaultParams())

	if rep.Context != croissantContext || rep.Type != "DatasetSimilarityReport" {
		t.Errorf("envelope = %s %s", rep.Context, rep.Type)
	}
	if rep.GeneratedAtTime != "2026-01-02T15:04:05Z" {
		t.Errorf("generatedAtTime = %s", rep.GeneratedAtTime)
	}
	if rep.Weights.Normalized {
		t.Error("default weights must not be flagged as normalized")
	}
	if rep.Weights.Keywords != 0.6 || rep.Weights.Threshold != 0.3 {
		t.Errorf("weights echo = %+v", rep.Weights)
	}

	if len(rep.Elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(rep.Elements))
	}
	// Sorted by profile id regardless of input order.
	if rep.Elements[0].ID != "profile:a" || rep.Elements[1].ID != "profile:b" {
		t.Errorf("element order = %s, %s", rep.Elements[0].ID, rep.Elements[1].ID)
	}
	if rep.Elements[0].Name != "Profile A" || rep.Elements[0].Headline != "head" {
		t.Errorf("element a = %+v", rep.Elements[0])
	}

	if len(rep.Links) != 1 {
		t.Fatalf("links = %d, want 1", len(rep.Links))
	}
	link := rep.Links[0]
	if link.Source != "profile:a" || link.Target != "profile:b" {
		t.Errorf("link endpoints = %s → wrong", link.Source+"/"+link.Target)
	}
	if link.Metrics.Keyword != 0.1235 {
		t.Errorf("keyword metric = %v, want rounded 0.1235", link.Metrics.Keyword)
	}
	if link.Metrics.Combined != 0.9877 {
		t.Errorf("combined metric = %v, want rounded 0.9877", link.Metrics.Combined)
	}
	if link.UniqueToTarget == nil {
		t.Error("empty membership lists must be [], not null")
	}

	raw := strings.TrimPrefix(link.ID, "link:")
	if raw == link.ID {
		t.Fatalf("link id %q missing prefix", link.ID)
	}
	if _, err := uuid.Parse(raw); err != nil {
		t.Errorf("link id %q not a uuid: %v", link.ID, err)
	}
}

func TestBuilder_Similarity_NormalizedEcho(t *testing.T) {
	p := models.Params{
		Weights:   models.Weights{Keyword: 1.2, Description: 0.6, Headline: 0.2},
		Threshold: 0.3,
	}

	rep := fixedBuilder().Similarity(nil, nil, p)

	if !rep.Weights.Normalized {
		t.Error("overweight config must be flagged as normalized")
	}
	if rep.Weights.Keywords != 0.6 || rep.Weights.Description != 0.3 || rep.Weights.Headline != 0.1 {
		t.Errorf("weights echo = %+v, want rescaled 0.6/0.3/0.1", rep.Weights)
	}
}

func TestBuilder_Similarity_UnknownProfileFallback(t *testing.T) {
	results := []models.SimilarityResult{{ProfileA: "gone", ProfileB: "also-gone"}}

	rep := fixedBuilder().Similarity(nil, results, models.DefaultParams())

	if len(rep.Elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(rep.Elements))
	}
	if rep.Elements[0].Name != "also-gone" {
		t.Errorf("fallback element name = %q, want the id", rep.Elements[0].Name)
	}
}

func TestBuilder_Refinement(t *testing.T) {
	res := models.RefinementResult{
		ProfileA:      "sales-2023",
		ProfileB:      "sales-2024",
		ContentTypeA:  models.ContentCSV,
		ContentTypeB:  models.ContentMixed,
		DistributionA: models.DistributionSummary{Total: 2, Files: 2, Formats: []string{"csv"}},
		DistributionB: models.DistributionSummary{Total: 3, Folders: 1, Files: 2, Formats: []string{"csv", "txt"}},
		StructureA: models.StructureSummary{
			Columns: []string{"amount", "region"},
		},
		SharedColumns:  []string{"region"},
		SharedKeywords: []string{"sales"},
		Summary:        "Content types: CSV vs MIXED.\nShared CSV columns (1): region.",
	}

	rep := fixedBuilder().Refinement(res)

	if rep.Type != "RefinementReport" {
		t.Errorf("type = %s", rep.Type)
	}
	if rep.Name != "Refinement between sales-2023 and sales-2024" {
		t.Errorf("name = %q", rep.Name)
	}
	if len(rep.Datasets) != 2 {
		t.Fatalf("datasets = %d, want 2", len(rep.Datasets))
	}
	if rep.Datasets[0].ID != "profile:sales-2023" || rep.Datasets[0].ContentType != models.ContentCSV {
		t.Errorf("dataset[0] = %+v", rep.Datasets[0])
	}
	if !reflect.DeepEqual(rep.Datasets[0].Structure.CSVColumns, []string{"amount", "region"}) {
		t.Errorf("structure columns = %v", rep.Datasets[0].Structure.CSVColumns)
	}
	if rep.Datasets[0].Structure.TextDocuments == nil {
		t.Error("empty structure lists must be [], not null")
	}
	if !reflect.DeepEqual(rep.Comparisons.CSV.SharedColumns, []string{"region"}) {
		t.Errorf("csv comparison = %+v", rep.Comparisons.CSV)
	}
	if !reflect.DeepEqual(rep.Comparisons.Keywords.Shared, []string{"sales"}) {
		t.Errorf("keyword comparison = %+v", rep.Comparisons.Keywords)
	}
	if rep.Summary != res.Summary {
		t.Errorf("summary = %q", rep.Summary)
	}
}

func TestFilenames(t *testing.T) {
	if got := SimilarityFilename(fixedTime); got != "similarity_20260102_150405.json" {
		t.Errorf("similarity filename = %q", got)
	}
	if got := RefinementFilename("a", "b"); got != "a__b.refinement.json" {
		t.Errorf("refinement filename = %q", got)
	}
	if got := JobFilename("analysis", "j1", fixedTime); got != "analysis_j1_20260102_150405.json" {
		t.Errorf("job filename = %q", got)
	}
}
