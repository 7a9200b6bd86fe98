// Package croissant parses Croissant dataset profile documents into the
// model types used by the similarity and refinement engines. Keyword and
// text normalization happens here, exactly once, at parse time.
package croissant

import (
	"sort"
	"strings"
)

// NormalizeKeywords trims, lowercases, deduplicates and sorts a keyword
// list, dropping entries that are empty after trimming. The result is never
// nil.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))

	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}

		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// NormalizeText trims surrounding whitespace. Case and inner whitespace are
// preserved: the embedding models see the text as written.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}
