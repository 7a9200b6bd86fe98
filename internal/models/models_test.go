package models_test

import (
	"math"
	"strings"
	"testing"

	"github.com/croissant-tools/dlsim/internal/models"
)

func assertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func assertErrorContains(t *testing.T, err error, want string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}

	if !strings.Contains(err.Error(), want) {
		t.Errorf("expected error containing %q, got %q", want, err.Error())
	}
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		w       models.Weights
		wantErr string
	}{
		{name: "defaults", w: models.DefaultWeights()},
		{name: "single signal", w: models.Weights{Keyword: 1}},
		{name: "sum below one", w: models.Weights{Keyword: 0.2, Description: 0.2, Headline: 0.1}},
		{name: "sum above one", w: models.Weights{Keyword: 2, Description: 1, Headline: 1}},
		{name: "all zero", w: models.Weights{}, wantErr: "sum to zero"},
		{name: "negative", w: models.Weights{Keyword: -0.1, Description: 0.5}, wantErr: "non-negative"},
		{name: "nan", w: models.Weights{Keyword: math.NaN()}, wantErr: "finite"},
		{name: "inf", w: models.Weights{Description: math.Inf(1)}, wantErr: "finite"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.w.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestWeights_Normalized(t *testing.T) {
	tests := []struct {
		name       string
		w          models.Weights
		want       models.Weights
		normalized bool
	}{
		{name: "sum of one untouched", w: models.DefaultWeights(), want: models.DefaultWeights()},
		{name: "sum below one untouched", w: models.Weights{Keyword: 0.2, Description: 0.2, Headline: 0.1}, want: models.Weights{Keyword: 0.2, Description: 0.2, Headline: 0.1}},
		{
			name:       "sum above one rescaled",
			w:          models.Weights{Keyword: 2, Description: 1, Headline: 1},
			want:       models.Weights{Keyword: 0.5, Description: 0.25, Headline: 0.25},
			normalized: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, normalized := tc.w.Normalized()
			if normalized != tc.normalized {
				t.Errorf("normalized = %v, want %v", normalized, tc.normalized)
			}

			const eps = 1e-9
			if math.Abs(got.Keyword-tc.want.Keyword) > eps ||
				math.Abs(got.Description-tc.want.Description) > eps ||
				math.Abs(got.Headline-tc.want.Headline) > eps {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}

			if tc.normalized {
				sum := got.Keyword + got.Description + got.Headline
				if math.Abs(sum-1) > eps {
					t.Errorf("rescaled sum = %v, want 1", sum)
				}
			}
		})
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       models.Params
		wantErr string
	}{
		{name: "defaults", p: models.DefaultParams()},
		{name: "threshold zero", p: models.Params{Weights: models.DefaultWeights()}},
		{name: "threshold one", p: models.Params{Weights: models.DefaultWeights(), Threshold: 1}},
		{name: "threshold above one", p: models.Params{Weights: models.DefaultWeights(), Threshold: 1.01}, wantErr: "threshold"},
		{name: "threshold negative", p: models.Params{Weights: models.DefaultWeights(), Threshold: -0.1}, wantErr: "threshold"},
		{name: "zero weights rejected first", p: models.Params{Threshold: 0.5}, wantErr: "sum to zero"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if tc.wantErr != "" {
				assertErrorContains(t, err, tc.wantErr)
				return
			}
			assertNoError(t, err)
		})
	}
}

func TestPairKey(t *testing.T) {
	if got := models.PairKey("b", "a"); got != "a|b" {
		t.Errorf("PairKey(b, a) = %q, want %q", got, "a|b")
	}

	if models.PairKey("x", "y") != models.PairKey("y", "x") {
		t.Error("pair key must be order-insensitive")
	}
}

func TestProfile_Validate(t *testing.T) {
	assertNoError(t, (&models.Profile{ID: "sales.json"}).Validate())
	assertErrorContains(t, (&models.Profile{}).Validate(), "id is required")
	assertErrorContains(t, (&models.Profile{ID: strings.Repeat("x", 256)}).Validate(), "exceeds maximum length")
}

func TestProfile_Summary(t *testing.T) {
	p := &models.Profile{
		ID:       "a.json",
		Name:     "a.json",
		Keywords: []string{"sales", "retail"},
		Headline: "Retail sales",
		Distribution: []*models.ResourceNode{
			{Name: "data", Kind: models.KindFolder, Children: []*models.ResourceNode{
				{Name: "data/2024.csv", Kind: models.KindFile, Format: models.FormatCSV},
			}},
			{Name: "README.txt", Kind: models.KindFile, Format: models.FormatTXT},
		},
	}

	s := p.Summary()
	if s.Resources != 3 {
		t.Errorf("resources = %d, want 3", s.Resources)
	}
	if s.Keywords != 2 {
		t.Errorf("keywords = %d, want 2", s.Keywords)
	}
	if !s.HasHeadline || s.HasDescription {
		t.Errorf("headline/description flags wrong: %+v", s)
	}
}

func TestFormat_Category(t *testing.T) {
	tests := []struct {
		format models.Format
		want   models.Category
	}{
		{models.FormatTXT, models.CategoryTextual},
		{models.FormatPDF, models.CategoryTextual},
		{models.FormatCSV, models.CategoryTabular},
		{models.FormatXLS, models.CategoryTabular},
		{models.FormatSQL, models.CategorySQL},
		{models.FormatUnknown, models.CategoryOther},
		{models.Format("parquet"), models.CategoryOther},
	}

	for _, tc := range tests {
		if got := tc.format.Category(); got != tc.want {
			t.Errorf("Category(%s) = %s, want %s", tc.format, got, tc.want)
		}
	}
}
