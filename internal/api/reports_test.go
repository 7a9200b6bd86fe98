package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/croissant-tools/dlsim/internal/api"
	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/report"
	"github.com/croissant-tools/dlsim/internal/similarity"
)

func reportRouter(registry *mockRegistry, engine *mockEngine) *gin.Engine {
	h := api.NewReportHandler(registry, engine, report.NewBuilder(), models.DefaultParams(), testLogger())

	r := gin.New()
	r.GET("/report", h.Get)
	r.GET("/report/download", h.Download)

	return r
}

func TestReportGet(t *testing.T) {
	registry := registryOf(testProfile("alpha", "climate"), testProfile("beta", "climate"))
	engine := &mockEngine{
		computeAllFn: func(ctx context.Context, profiles []*models.Profile, p models.Params) ([]models.SimilarityResult, similarity.BatchStats, error) {
			return []models.SimilarityResult{{
				ProfileA:        "alpha",
				ProfileB:        "beta",
				KeywordScore:    1,
				CombinedScore:   0.6,
				CommonKeywords:  []string{"climate"},
				CommonCount:     1,
				PassesThreshold: true,
			}}, similarity.BatchStats{Pairs: 1}, nil
		},
	}

	w := doRequest(reportRouter(registry, engine), http.MethodGet, "/report", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var doc report.SimilarityReport
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Type != "SimilarityReport" || doc.Context == "" {
		t.Errorf("doc type = %q, context = %q", doc.Type, doc.Context)
	}
	if len(doc.Links) != 1 || len(doc.Elements) != 2 {
		t.Fatalf("links = %d, elements = %d", len(doc.Links), len(doc.Elements))
	}
	if doc.Links[0].Source != "profile:alpha" || doc.Links[0].Target != "profile:beta" {
		t.Errorf("link endpoints = %s -> %s", doc.Links[0].Source, doc.Links[0].Target)
	}
	if doc.Weights.Threshold != models.DefaultParams().Threshold {
		t.Errorf("threshold echo = %v", doc.Weights.Threshold)
	}
}

func TestReportGet_ParamOverride(t *testing.T) {
	registry := registryOf(testProfile("alpha"), testProfile("beta"))
	var got models.Params
	engine := &mockEngine{
		computeAllFn: func(ctx context.Context, profiles []*models.Profile, p models.Params) ([]models.SimilarityResult, similarity.BatchStats, error) {
			got = p

			return nil, similarity.BatchStats{Pairs: 1}, nil
		},
	}

	w := doRequest(reportRouter(registry, engine), http.MethodGet, "/report?th=0.9", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got.Threshold != 0.9 {
		t.Errorf("threshold = %v, want 0.9", got.Threshold)
	}
}

func TestReportGet_NeedsTwoProfiles(t *testing.T) {
	w := doRequest(reportRouter(registryOf(testProfile("alpha")), &mockEngine{}), http.MethodGet, "/report", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestReportDownload(t *testing.T) {
	registry := registryOf(testProfile("alpha"), testProfile("beta"))
	engine := &mockEngine{
		computeAllFn: func(ctx context.Context, profiles []*models.Profile, p models.Params) ([]models.SimilarityResult, similarity.BatchStats, error) {
			return nil, similarity.BatchStats{Pairs: 1}, nil
		},
	}

	w := doRequest(reportRouter(registry, engine), http.MethodGet, "/report/download", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	disposition := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disposition, `attachment; filename="similarity_`) || !strings.HasSuffix(disposition, `.json"`) {
		t.Errorf("Content-Disposition = %q", disposition)
	}
}
