package search

import (
	"strings"

	"github.com/refcat/mcp-server/internal/catalog"
)

// MaxGlobalResults caps GlobalSearch. Truncation is silent.
const MaxGlobalResults = 10

// NormalizeQuery trims surrounding whitespace and lower-cases the query
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// ItemMatchesQuery reports whether the query is a substring of the item's name,
// label, summary, any tag or any key point, ignoring case. Example content is
// not searched here; only the global index covers it.
func ItemMatchesQuery(item catalog.Item, query string) bool {
	q := strings.ToLower(query)

	fields := make([]string, 0, 3+len(item.Tags)+len(item.KeyPoints))
	fields = append(fields, item.Name, item.Label, item.Summary)
	fields = append(fields, item.Tags...)
	fields = append(fields, item.KeyPoints...)

	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// FilterSections keeps only the items matching query and drops sections left
// without items. An empty (or whitespace-only) query returns sections itself.
// The input is never modified; surviving sections are copies holding only the
// matching items.
func FilterSections(sections []catalog.Section, query string) []catalog.Section {
	q := NormalizeQuery(query)
	if q == "" {
		return sections
	}

	filtered := make([]catalog.Section, 0, len(sections))
	for _, sec := range sections {
		var items []catalog.Item
		for _, item := range sec.Items {
			if ItemMatchesQuery(item, q) {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}

		sec.Items = items
		filtered = append(filtered, sec)
	}
	return filtered
}

// GlobalSearch returns the first MaxGlobalResults entries, in index order, whose
// searchable text contains the query. An empty query matches nothing.
func GlobalSearch(index []Entry, query string) []Entry {
	q := NormalizeQuery(query)
	results := make([]Entry, 0, MaxGlobalResults)
	if q == "" {
		return results
	}

	for _, entry := range index {
		if !strings.Contains(entry.Searchable, q) {
			continue
		}
		results = append(results, entry)
		if len(results) == MaxGlobalResults {
			break
		}
	}
	return results
}
