package models

// ContentType is the coarse classification of a profile's distribution.
type ContentType string

// Content types. An empty distribution classifies as TEXTUAL; any mix of
// two or more format categories classifies as MIXED.
const (
	ContentTextual ContentType = "TEXTUAL"
	ContentCSV     ContentType = "CSV"
	ContentSQL     ContentType = "SQL"
	ContentMixed   ContentType = "MIXED"
)

// Category groups resource formats for content-type classification.
type Category string

// Format categories.
const (
	CategoryTextual Category = "textual"
	CategoryTabular Category = "tabular"
	CategorySQL     Category = "sql"
	CategoryOther   Category = "other"
)

// formatCategories is the extensible format → category lookup table.
var formatCategories = map[Format]Category{
	FormatTXT: CategoryTextual,
	FormatPDF: CategoryTextual,
	FormatCSV: CategoryTabular,
	FormatXLS: CategoryTabular,
	FormatSQL: CategorySQL,
}

// Category maps the format to its classification category.
func (f Format) Category() Category {
	if c, ok := formatCategories[f]; ok {
		return c
	}

	return CategoryOther
}

// DistributionSummary counts the shapes present in a distribution tree.
type DistributionSummary struct {
	Total   int      `json:"total"`
	Folders int      `json:"folders"`
	Files   int      `json:"files"`
	Formats []string `json:"formats"`
}

// StructureSummary lists the tabular and textual structure declared by one
// profile's distribution.
type StructureSummary struct {
	Documents        []string `json:"documents"`
	DocumentKeywords []string `json:"document_keywords"`
	Columns          []string `json:"columns"`
}

// ColumnOverlap details the sample-value overlap for one shared CSV column.
type ColumnOverlap struct {
	Column        string   `json:"column"`
	SamplesA      []string `json:"samples_a"`
	SamplesB      []string `json:"samples_b"`
	CommonSamples []string `json:"common_samples"`
}

// DocumentOverlap details the keyword overlap for one shared document name.
type DocumentOverlap struct {
	Name           string   `json:"document_name"`
	KeywordsA      []string `json:"keywords_a"`
	KeywordsB      []string `json:"keywords_b"`
	CommonKeywords []string `json:"common_keywords"`
}

// RefinementResult is the structural comparison of one profile pair.
type RefinementResult struct {
	ProfileA      string              `json:"profile_a"`
	ProfileB      string              `json:"profile_b"`
	ContentTypeA  ContentType         `json:"content_type_a"`
	ContentTypeB  ContentType         `json:"content_type_b"`
	DistributionA DistributionSummary `json:"distribution_a"`
	DistributionB DistributionSummary `json:"distribution_b"`
	StructureA    StructureSummary    `json:"structure_a"`
	StructureB    StructureSummary    `json:"structure_b"`

	SharedColumns []string        `json:"shared_columns"`
	ColumnOverlap []ColumnOverlap `json:"column_overlap,omitempty"`

	SharedDocuments        []string          `json:"shared_documents"`
	SharedDocumentKeywords []string          `json:"shared_document_keywords"`
	DocumentOverlap        []DocumentOverlap `json:"document_overlap,omitempty"`

	SharedKeywords  []string `json:"shared_keywords"`
	UniqueKeywordsA []string `json:"unique_keywords_a"`
	UniqueKeywordsB []string `json:"unique_keywords_b"`

	Summary string `json:"summary"`
}

// PairError records a per-pair failure inside a batch operation.
type PairError struct {
	ProfileA string `json:"profile_a"`
	ProfileB string `json:"profile_b"`
	Error    string `json:"error"`
}
