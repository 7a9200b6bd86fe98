package croissant

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/croissant-tools/dlsim/internal/models"
)

// document is the lenient wire shape of a Croissant dataset profile. Only
// the fields the engines consume are decoded; everything else is ignored.
type document struct {
	ID           string          `json:"@id"`
	Name         string          `json:"name"`
	Headline     string          `json:"headline"`
	Description  string          `json:"description"`
	Keywords     json.RawMessage `json:"keywords"`
	Distribution []distEntry     `json:"distribution"`
	RecordSets   []recordSet     `json:"recordSet"`
}

type distEntry struct {
	Type        string          `json:"@type"`
	ID          string          `json:"@id"`
	Name        string          `json:"name"`
	Encoding    string          `json:"encodingFormat"`
	Includes    json.RawMessage `json:"includes"`
	ContentURL  string          `json:"contentUrl"`
	ContainedIn json.RawMessage `json:"containedIn"`
}

type recordSet struct {
	Fields []field `json:"field"`
}

type field struct {
	Type     string          `json:"@type"`
	Name     string          `json:"name"`
	Keywords json.RawMessage `json:"keywords"`
	Sample   json.RawMessage `json:"sample"`
	Source   fieldSource     `json:"source"`
}

type fieldSource struct {
	FileSet    *idRef `json:"fileSet"`
	FileObject *idRef `json:"fileObject"`
}

type idRef struct {
	ID string `json:"@id"`
}

// ParseProfile decodes one Croissant document into a Profile. Identity
// falls back from @id to name; a document with neither is rejected. The
// distribution tree is built permissively: structural violations (a File
// node with children) surface later, during refinement.
func ParseProfile(data []byte) (*models.Profile, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode croissant document: %w", err)
	}

	id := strings.TrimSpace(doc.ID)
	if id == "" {
		id = strings.TrimSpace(doc.Name)
	}

	p := &models.Profile{
		ID:           id,
		Name:         strings.TrimSpace(doc.Name),
		Keywords:     NormalizeKeywords(stringList(doc.Keywords)),
		Headline:     NormalizeText(doc.Headline),
		Description:  NormalizeText(doc.Description),
		Distribution: buildTree(doc.Distribution),
	}
	if p.Name == "" {
		p.Name = p.ID
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("croissant document: %w", err)
	}

	attachRecordSets(p, doc.RecordSets)

	return p, nil
}

// buildTree converts the flat distribution list into a tree, linking each
// entry with a containedIn reference under its parent when that parent is
// present in the same document.
func buildTree(entries []distEntry) []*models.ResourceNode {
	if len(entries) == 0 {
		return nil
	}

	nodes := make([]*models.ResourceNode, len(entries))
	byID := make(map[string]*models.ResourceNode, len(entries))

	for i, e := range entries {
		n := &models.ResourceNode{
			ID:     strings.TrimSpace(e.ID),
			Name:   strings.TrimSpace(e.Name),
			Kind:   kindOf(e.Type),
			Format: formatOf(e),
		}
		if n.Name == "" {
			n.Name = n.ID
		}

		nodes[i] = n
		if n.ID != "" {
			byID[n.ID] = n
		}
	}

	roots := make([]*models.ResourceNode, 0, len(entries))

	// Every node has at most one containedIn parent, so reference cycles
	// leave no member reachable from the roots; tree walks stay finite.
	for i, e := range entries {
		parent := byID[refID(e.ContainedIn)]
		if parent != nil && parent != nodes[i] {
			parent.Children = append(parent.Children, nodes[i])
			continue
		}

		roots = append(roots, nodes[i])
	}

	return roots
}

// kindOf maps a Croissant @type to a resource kind. Unrecognized types are
// treated as leaf files.
func kindOf(crType string) models.ResourceKind {
	t := strings.TrimSpace(crType)
	if strings.HasSuffix(t, "FileSet") {
		return models.KindFolder
	}

	return models.KindFile
}

// formatOf resolves a resource format from the declared encodingFormat,
// falling back to file extensions found in includes, contentUrl and name.
func formatOf(e distEntry) models.Format {
	if f := formatFromMIME(e.Encoding); f != models.FormatUnknown {
		return f
	}

	joined := strings.ToLower(strings.Join([]string{
		strings.Join(stringList(e.Includes), " "),
		e.ContentURL,
		e.Name,
	}, " "))

	switch {
	case strings.Contains(joined, ".csv"):
		return models.FormatCSV
	case strings.Contains(joined, ".txt"):
		return models.FormatTXT
	case strings.Contains(joined, ".sql"):
		return models.FormatSQL
	case strings.Contains(joined, ".pdf"):
		return models.FormatPDF
	case strings.Contains(joined, ".xls"):
		return models.FormatXLS
	}

	return models.FormatUnknown
}

func formatFromMIME(enc string) models.Format {
	enc = strings.ToLower(strings.TrimSpace(enc))

	switch {
	case enc == "":
		return models.FormatUnknown
	case enc == "text/csv":
		return models.FormatCSV
	case strings.Contains(enc, "excel") || strings.Contains(enc, "spreadsheet"):
		return models.FormatXLS
	case strings.Contains(enc, "sql"):
		return models.FormatSQL
	case enc == "application/pdf":
		return models.FormatPDF
	case strings.HasPrefix(enc, "text/"):
		return models.FormatTXT
	}

	return models.FormatUnknown
}

// attachRecordSets walks the record sets and attaches tabular columns and
// text corpus documents to the resources their source references.
func attachRecordSets(p *models.Profile, sets []recordSet) {
	byID := make(map[string]*models.ResourceNode)

	var index func(nodes []*models.ResourceNode)
	index = func(nodes []*models.ResourceNode) {
		for _, n := range nodes {
			if n.ID != "" {
				byID[n.ID] = n
			}
			index(n.Children)
		}
	}
	index(p.Distribution)

	// Merged per resource so that same-named columns from several record
	// sets collapse into one schema entry.
	columns := make(map[*models.ResourceNode]map[string][]string)

	for _, rs := range sets {
		for _, f := range rs.Fields {
			node := byID[sourceID(f.Source)]
			if node == nil {
				continue
			}

			switch {
			case node.Format.Category() == models.CategoryTabular:
				name := strings.ToLower(strings.TrimSpace(f.Name))
				if name == "" {
					continue
				}

				cols, ok := columns[node]
				if !ok {
					cols = make(map[string][]string)
					columns[node] = cols
				}
				cols[name] = append(cols[name], sampleList(f.Sample)...)

			case strings.HasSuffix(f.Type, "Document") &&
				node.Kind == models.KindFolder &&
				node.Format.Category() == models.CategoryTextual:
				name := strings.ToLower(strings.TrimSpace(f.Name))
				if name == "" {
					continue
				}

				node.Docs = append(node.Docs, models.Document{
					Name:     name,
					Keywords: NormalizeKeywords(stringList(f.Keywords)),
				})
			}
		}
	}

	for node, cols := range columns {
		names := make([]string, 0, len(cols))
		for name := range cols {
			names = append(names, name)
		}
		sort.Strings(names)

		node.Columns = make([]models.Column, 0, len(names))
		for _, name := range names {
			node.Columns = append(node.Columns, models.Column{
				Name:    name,
				Samples: NormalizeKeywords(cols[name]),
			})
		}
	}
}

func sourceID(s fieldSource) string {
	if s.FileSet != nil {
		return s.FileSet.ID
	}
	if s.FileObject != nil {
		return s.FileObject.ID
	}

	return ""
}

// refID extracts the @id from a containedIn value, which appears in the
// wild as a bare string, an {"@id": ...} object, or a one-element array of
// either.
func refID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var ref idRef
	if err := json.Unmarshal(raw, &ref); err == nil && ref.ID != "" {
		return strings.TrimSpace(ref.ID)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return refID(list[0])
	}

	return ""
}

// stringList decodes a JSON value that may be a single string or a list of
// mixed scalars, keeping only the string entries.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

// sampleList decodes column sample values. Unlike keywords, numeric samples
// are kept, rendered in their shortest decimal form.
func sampleList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		var single any
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		items = []any{single}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}

	return out
}
