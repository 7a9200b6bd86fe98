// Package report renders similarity and refinement outcomes as
// Croissant-style JSON documents.
package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/croissant-tools/dlsim/internal/models"
)

// croissantContext is the JSON-LD context all reports declare.
const croissantContext = "http://mlcommons.org/croissant/"

// SimilarityReport is the exported document for a batch similarity run.
type SimilarityReport struct {
	Context         string           `json:"@context"`
	Type            string           `json:"@type"`
	Name            string           `json:"name"`
	GeneratedAtTime string           `json:"generatedAtTime"`
	Weights         WeightsEcho      `json:"weights"`
	Elements        []DLElement      `json:"elements"`
	Links           []SimilarityLink `json:"links"`
}

// WeightsEcho repeats the effective scoring parameters inside a report.
// Normalized is true when the configured weights were rescaled to sum to one.
type WeightsEcho struct {
	Keywords    float64 `json:"keywords"`
	Description float64 `json:"description"`
	Headline    float64 `json:"headline"`
	Normalized  bool    `json:"normalized"`
	Threshold   float64 `json:"threshold"`
}

// DLElement describes one profile referenced by at least one link.
type DLElement struct {
	ID          string   `json:"@id"`
	Type        string   `json:"@type"`
	Name        string   `json:"name"`
	Headline    string   `json:"headline,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords"`
}

// SimilarityLink connects two elements with their similarity metrics.
type SimilarityLink struct {
	ID             string      `json:"@id"`
	Type           string      `json:"@type"`
	Source         string      `json:"source"`
	Target         string      `json:"target"`
	Metrics        LinkMetrics `json:"metrics"`
	CommonKeywords []string    `json:"common_keywords"`
	UniqueToSource []string    `json:"unique_to_source"`
	UniqueToTarget []string    `json:"unique_to_target"`
}

// LinkMetrics carries the per-signal scores of a link, rounded for export.
type LinkMetrics struct {
	Keyword     float64 `json:"keyword_similarity"`
	Description float64 `json:"description_similarity"`
	Headline    float64 `json:"headline_similarity"`
	Combined    float64 `json:"combined_similarity"`
}

// RefinementReport is the exported document for one refined pair.
type RefinementReport struct {
	Context         string                `json:"@context"`
	Type            string                `json:"@type"`
	Name            string                `json:"name"`
	GeneratedAtTime string                `json:"generatedAtTime"`
	Datasets        []RefinementDataset   `json:"datasets"`
	Comparisons     RefinementComparisons `json:"comparisons"`
	Summary         string                `json:"summary"`
}

// RefinementDataset is the per-dataset block of a refinement report.
type RefinementDataset struct {
	ID                  string                     `json:"@id"`
	ContentType         models.ContentType         `json:"contentType"`
	DistributionSummary models.DistributionSummary `json:"distributionSummary"`
	Structure           RefinementStructure        `json:"structure"`
}

// RefinementStructure lists a dataset's declared textual and tabular shape.
type RefinementStructure struct {
	TextDocuments        []string `json:"textDocuments"`
	TextDocumentKeywords []string `json:"textDocumentKeywords"`
	CSVColumns           []string `json:"csvColumns"`
}

// RefinementComparisons groups the overlap findings by family.
type RefinementComparisons struct {
	Text     TextComparison    `json:"text"`
	CSV      CSVComparison     `json:"csv"`
	Keywords KeywordComparison `json:"keywords"`
}

// TextComparison reports document-level overlap.
type TextComparison struct {
	SharedDocuments []string                 `json:"sharedDocuments"`
	SharedKeywords  []string                 `json:"sharedKeywords"`
	DocumentOverlap []models.DocumentOverlap `json:"documentOverlap,omitempty"`
}

// CSVComparison reports column-level overlap.
type CSVComparison struct {
	SharedColumns []string               `json:"sharedColumns"`
	ColumnOverlap []models.ColumnOverlap `json:"columnOverlap,omitempty"`
}

// KeywordComparison reports profile-level keyword membership.
type KeywordComparison struct {
	Shared    []string `json:"shared"`
	UniqueToA []string `json:"uniqueToA"`
	UniqueToB []string `json:"uniqueToB"`
}

// Builder assembles report documents. It performs no scoring of its own,
// only formatting, rounding, ordering and id generation.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// Similarity builds the report document for a set of qualifying results.
// Elements cover exactly the profiles referenced by a link, sorted by id;
// links keep the order of results.
func (b *Builder) Similarity(profiles []*models.Profile, results []models.SimilarityResult, p models.Params) *SimilarityReport {
	byID := make(map[string]*models.Profile, len(profiles))
	for _, prof := range profiles {
		byID[prof.ID] = prof
	}

	referenced := make(map[string]bool, len(results)*2)
	links := make([]SimilarityLink, 0, len(results))
	for _, res := range results {
		referenced[res.ProfileA] = true
		referenced[res.ProfileB] = true

		links = append(links, SimilarityLink{
			ID:     "link:" + uuid.New().String(),
			Type:   "SimilarityLink",
			Source: "profile:" + res.ProfileA,
			Target: "profile:" + res.ProfileB,
			Metrics: LinkMetrics{
				Keyword:     round4(res.KeywordScore),
				Description: round4(res.DescriptionScore),
				Headline:    round4(res.HeadlineScore),
				Combined:    round4(res.CombinedScore),
			},
			CommonKeywords: emptyIfNil(res.CommonKeywords),
			UniqueToSource: emptyIfNil(res.UniqueToA),
			UniqueToTarget: emptyIfNil(res.UniqueToB),
		})
	}

	ids := make([]string, 0, len(referenced))
	for id := range referenced {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	elements := make([]DLElement, 0, len(ids))
	for _, id := range ids {
		el := DLElement{ID: "profile:" + id, Type: "DLElement", Name: id, Keywords: []string{}}
		if prof, ok := byID[id]; ok {
			el.Name = prof.Name
			el.Headline = prof.Headline
			el.Description = prof.Description
			el.Keywords = emptyIfNil(prof.Keywords)
		}
		elements = append(elements, el)
	}

	effective, rescaled := p.Weights.Normalized()

	return &SimilarityReport{
		Context:         croissantContext,
		Type:            "DatasetSimilarityReport",
		Name:            "Dataset Similarity Report",
		GeneratedAtTime: b.now().UTC().Format(time.RFC3339),
		Weights: WeightsEcho{
			Keywords:    round4(effective.Keyword),
			Description: round4(effective.Description),
			Headline:    round4(effective.Headline),
			Normalized:  rescaled,
			Threshold:   round4(p.Threshold),
		},
		Elements: elements,
		Links:    links,
	}
}

// Refinement builds the report document for one refined pair.
func (b *Builder) Refinement(res models.RefinementResult) *RefinementReport {
	return &RefinementReport{
		Context:         croissantContext,
		Type:            "RefinementReport",
		Name:            fmt.Sprintf("Refinement between %s and %s", res.ProfileA, res.ProfileB),
		GeneratedAtTime: b.now().UTC().Format(time.RFC3339),
		Datasets: []RefinementDataset{
			{
				ID:                  "profile:" + res.ProfileA,
				ContentType:         res.ContentTypeA,
				DistributionSummary: res.DistributionA,
				Structure:           structureBlock(res.StructureA),
			},
			{
				ID:                  "profile:" + res.ProfileB,
				ContentType:         res.ContentTypeB,
				DistributionSummary: res.DistributionB,
				Structure:           structureBlock(res.StructureB),
			},
		},
		Comparisons: RefinementComparisons{
			Text: TextComparison{
				SharedDocuments: emptyIfNil(res.SharedDocuments),
				SharedKeywords:  emptyIfNil(res.SharedDocumentKeywords),
				DocumentOverlap: res.DocumentOverlap,
			},
			CSV: CSVComparison{
				SharedColumns: emptyIfNil(res.SharedColumns),
				ColumnOverlap: res.ColumnOverlap,
			},
			Keywords: KeywordComparison{
				Shared:    emptyIfNil(res.SharedKeywords),
				UniqueToA: emptyIfNil(res.UniqueKeywordsA),
				UniqueToB: emptyIfNil(res.UniqueKeywordsB),
			},
		},
		Summary: res.Summary,
	}
}

func structureBlock(s models.StructureSummary) RefinementStructure {
	return RefinementStructure{
		TextDocuments:        emptyIfNil(s.Documents),
		TextDocumentKeywords: emptyIfNil(s.DocumentKeywords),
		CSVColumns:           emptyIfNil(s.Columns),
	}
}

// SimilarityFilename names a similarity report download.
func SimilarityFilename(t time.Time) string {
	return fmt.Sprintf("similarity_%s.json", t.UTC().Format("20060102_150405"))
}

// RefinementFilename names a refinement report download.
func RefinementFilename(a, b string) string {
	return fmt.Sprintf("%s__%s.refinement.json", a, b)
}

// JobFilename names a job result download.
func JobFilename(kind, jobID string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s.json", kind, jobID, t.UTC().Format("20060102_150405"))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// emptyIfNil keeps list-valued JSON fields as [] rather than null.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
