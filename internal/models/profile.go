// Package models defines data types for dataset profiles and their comparison.
package models

// ResourceKind distinguishes folder-like resources (Croissant FileSet) from
// single files (Croissant FileObject).
type ResourceKind string

// Resource kinds.
const (
	KindFolder ResourceKind = "folder"
	KindFile   ResourceKind = "file"
)

// Format identifies the payload format of a distribution resource.
type Format string

// Known resource formats. FormatUnknown covers everything the parser
// cannot map from a MIME type or a file extension.
const (
	FormatCSV     Format = "csv"
	FormatTXT     Format = "txt"
	FormatPDF     Format = "pdf"
	FormatSQL     Format = "sql"
	FormatXLS     Format = "xls"
	FormatUnknown Format = "unknown"
)

// Column is a declared tabular column of a CSV-like resource, with the
// normalized sample values listed in the profile (may be empty).
type Column struct {
	Name    string   `json:"name"`
	Samples []string `json:"samples,omitempty"`
}

// Document is a named member of a text corpus resource, with its
// normalized document-level keywords (may be empty).
type Document struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords,omitempty"`
}

// ResourceNode is one node of a profile's distribution tree. Kind is
// declared by the profile, never inferred: a File node carrying children is
// a malformed shape that the refinement engine rejects.
type ResourceNode struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Kind     ResourceKind    `json:"kind"`
	Format   Format          `json:"format"`
	Children []*ResourceNode `json:"children,omitempty"`
	Columns  []Column        `json:"columns,omitempty"`
	Docs     []Document      `json:"documents,omitempty"`
}

// Profile is a parsed dataset profile. Keywords, headline and description
// are normalized exactly once, at parse time.
type Profile struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Keywords     []string        `json:"keywords"`
	Headline     string          `json:"headline,omitempty"`
	Description  string          `json:"description,omitempty"`
	Distribution []*ResourceNode `json:"distribution,omitempty"`
}

// Validate checks that the profile carries an identity within limits.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}

	if len(p.ID) > 255 {
		return ErrFieldTooLong("id", 255)
	}

	return nil
}

// ProfileSummary is a lightweight registry listing entry.
type ProfileSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Keywords       int    `json:"keywords"`
	Resources      int    `json:"resources"`
	HasHeadline    bool   `json:"has_headline"`
	HasDescription bool   `json:"has_description"`
}

// Summary builds the listing entry for a profile.
func (p *Profile) Summary() ProfileSummary {
	count := 0
	var walk func(nodes []*ResourceNode)
	walk = func(nodes []*ResourceNode) {
		for _, n := range nodes {
			count++
			walk(n.Children)
		}
	}
	walk(p.Distribution)

	return ProfileSummary{
		ID:             p.ID,
		Name:           p.Name,
		Keywords:       len(p.Keywords),
		Resources:      count,
		HasHeadline:    p.Headline != "",
		HasDescription: p.Description != "",
	}
}
