// Package refine performs structural comparison of dataset profile pairs:
// content-type classification plus column, document and keyword overlap.
package refine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/croissant-tools/dlsim/internal/croissant"
	"github.com/croissant-tools/dlsim/internal/models"
)

// summaryCap limits how many literal values a summary line spells out.
const summaryCap = 8

// treeStats aggregates one pass over a distribution tree.
type treeStats struct {
	folders int
	files   int
	formats map[models.Format]bool
	columns map[string]map[string]bool
	docs    map[string]map[string]bool
}

// profileStats walks the distribution tree once, collecting counts, the
// classification format set, tabular columns with their samples and text
// documents with their keywords. A File node with children fails the walk.
func profileStats(p *models.Profile) (*treeStats, error) {
	st := &treeStats{
		formats: make(map[models.Format]bool),
		columns: make(map[string]map[string]bool),
		docs:    make(map[string]map[string]bool),
	}

	var walk func(n *models.ResourceNode) error
	walk = func(n *models.ResourceNode) error {
		switch n.Kind {
		case models.KindFile:
			if len(n.Children) > 0 {
				return models.MalformedDistributionError(p.ID, n.Name, "file resource has children")
			}
			st.files++
			st.formats[n.Format] = true
		case models.KindFolder:
			st.folders++
			// A childless fileset stands for its members.
			if len(n.Children) == 0 {
				st.formats[n.Format] = true
			}
		default:
			return models.MalformedDistributionError(p.ID, n.Name, fmt.Sprintf("unknown resource kind %q", n.Kind))
		}

		for _, c := range n.Columns {
			set := st.columns[c.Name]
			if set == nil {
				set = make(map[string]bool)
				st.columns[c.Name] = set
			}
			for _, s := range c.Samples {
				set[s] = true
			}
		}
		for _, d := range n.Docs {
			set := st.docs[d.Name]
			if set == nil {
				set = make(map[string]bool)
				st.docs[d.Name] = set
			}
			for _, k := range d.Keywords {
				set[k] = true
			}
		}

		for _, child := range n.Children {
			if err := walk(child); err != nil {
				return err
			}
		}

		return nil
	}

	for _, root := range p.Distribution {
		if err := walk(root); err != nil {
			return nil, err
		}
	}

	return st, nil
}

func classifyFormats(formats map[models.Format]bool) models.ContentType {
	categories := make(map[models.Category]bool, len(formats))
	for f := range formats {
		categories[f.Category()] = true
	}

	if len(categories) == 0 {
		return models.ContentTextual
	}
	if len(categories) > 1 {
		return models.ContentMixed
	}

	for c := range categories {
		switch c {
		case models.CategoryTextual:
			return models.ContentTextual
		case models.CategoryTabular:
			return models.ContentCSV
		case models.CategorySQL:
			return models.ContentSQL
		}
	}

	return models.ContentMixed
}

// Classify derives the content type of a profile's distribution. An empty
// distribution is TEXTUAL; any mix of format categories is MIXED.
func Classify(p *models.Profile) (models.ContentType, error) {
	st, err := profileStats(p)
	if err != nil {
		return "", err
	}

	return classifyFormats(st.formats), nil
}

// Compare builds the structural comparison of two profiles.
func Compare(a, b *models.Profile) (models.RefinementResult, error) {
	stA, err := profileStats(a)
	if err != nil {
		return models.RefinementResult{}, err
	}
	stB, err := profileStats(b)
	if err != nil {
		return models.RefinementResult{}, err
	}

	res := models.RefinementResult{
		ProfileA:      a.ID,
		ProfileB:      b.ID,
		ContentTypeA:  classifyFormats(stA.formats),
		ContentTypeB:  classifyFormats(stB.formats),
		DistributionA: summarize(stA),
		DistributionB: summarize(stB),
		StructureA:    structureOf(stA),
		StructureB:    structureOf(stB),
	}

	res.SharedColumns = intersectKeys(stA.columns, stB.columns)
	for _, col := range res.SharedColumns {
		res.ColumnOverlap = append(res.ColumnOverlap, models.ColumnOverlap{
			Column:        col,
			SamplesA:      sortedKeys(stA.columns[col]),
			SamplesB:      sortedKeys(stB.columns[col]),
			CommonSamples: intersectSets(stA.columns[col], stB.columns[col]),
		})
	}

	res.SharedDocuments = intersectKeys(stA.docs, stB.docs)
	for _, name := range res.SharedDocuments {
		res.DocumentOverlap = append(res.DocumentOverlap, models.DocumentOverlap{
			Name:           name,
			KeywordsA:      sortedKeys(stA.docs[name]),
			KeywordsB:      sortedKeys(stB.docs[name]),
			CommonKeywords: intersectSets(stA.docs[name], stB.docs[name]),
		})
	}
	res.SharedDocumentKeywords = intersectSets(mergeValues(stA.docs), mergeValues(stB.docs))

	kwA := toSet(croissant.NormalizeKeywords(a.Keywords))
	kwB := toSet(croissant.NormalizeKeywords(b.Keywords))
	res.SharedKeywords = intersectSets(kwA, kwB)
	res.UniqueKeywordsA = subtractSets(kwA, kwB)
	res.UniqueKeywordsB = subtractSets(kwB, kwA)

	res.Summary = buildSummary(&res)

	return res, nil
}

// ComparePairs refines each requested pair. Unknown ids and malformed trees
// are recorded per pair and the batch continues; cancellation returns the
// partial results alongside the context error.
func ComparePairs(ctx context.Context, profiles []*models.Profile, pairs [][2]string) ([]models.RefinementResult, []models.PairError, error) {
	byID := make(map[string]*models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	var (
		results  []models.RefinementResult
		failures []models.PairError
	)
	for _, pr := range pairs {
		if err := ctx.Err(); err != nil {
			return results, failures, err
		}

		a, okA := byID[pr[0]]
		b, okB := byID[pr[1]]
		if !okA || !okB {
			missing := pr[0]
			if okA {
				missing = pr[1]
			}
			failures = append(failures, models.PairError{
				ProfileA: pr[0],
				ProfileB: pr[1],
				Error:    fmt.Sprintf("profile %s: %s", missing, models.ErrProfileNotFound),
			})

			continue
		}

		res, err := Compare(a, b)
		if err != nil {
			failures = append(failures, models.PairError{ProfileA: pr[0], ProfileB: pr[1], Error: err.Error()})

			continue
		}
		results = append(results, res)
	}

	return results, failures, nil
}

func structureOf(st *treeStats) models.StructureSummary {
	return models.StructureSummary{
		Documents:        sortedKeys(st.docs),
		DocumentKeywords: sortedKeys(mergeValues(st.docs)),
		Columns:          sortedKeys(st.columns),
	}
}

func summarize(st *treeStats) models.DistributionSummary {
	formats := make([]string, 0, len(st.formats))
	for f := range st.formats {
		formats = append(formats, string(f))
	}
	sort.Strings(formats)

	return models.DistributionSummary{
		Total:   st.folders + st.files,
		Folders: st.folders,
		Files:   st.files,
		Formats: formats,
	}
}

// buildSummary renders the deterministic human-readable synthesis: content
// types first, then one line per non-empty overlap family.
func buildSummary(res *models.RefinementResult) string {
	lines := []string{fmt.Sprintf("Content types: %s vs %s.", res.ContentTypeA, res.ContentTypeB)}

	overlaps := 0
	add := func(label string, values []string) {
		if len(values) == 0 {
			return
		}
		overlaps++
		lines = append(lines, fmt.Sprintf("%s (%d): %s.", label, len(values), displayList(values)))
	}

	add("Shared CSV columns", res.SharedColumns)
	add("Shared documents", res.SharedDocuments)
	add("Shared document keywords", res.SharedDocumentKeywords)
	add("Shared keywords", res.SharedKeywords)

	if overlaps == 0 {
		lines = append(lines, "No structural overlap found.")
	}

	return strings.Join(lines, "\n")
}

// displayList joins up to summaryCap sorted values, marking truncation.
func displayList(values []string) string {
	if len(values) <= summaryCap {
		return strings.Join(values, ", ")
	}

	return strings.Join(values[:summaryCap], ", ") + ", …"
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}

	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

func intersectKeys[V any](a, b map[string]V) []string {
	out := []string{}
	for k := range a {
		if _, ok := b[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)

	return out
}

func intersectSets(a, b map[string]bool) []string {
	out := []string{}
	for k := range a {
		if b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)

	return out
}

func subtractSets(a, b map[string]bool) []string {
	out := []string{}
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)

	return out
}

func mergeValues(m map[string]map[string]bool) map[string]bool {
	merged := make(map[string]bool)
	for _, set := range m {
		for v := range set {
			merged[v] = true
		}
	}

	return merged
}
