// Package search builds the flattened catalog index and answers the two query
// shapes of the catalog: per-section filtering and global top-K lookup.
//
// Every function in this package is pure. Results never re-rank their input:
// sections, items and entries always come back in catalog order.
package search

import (
	"strings"

	"github.com/refcat/mcp-server/internal/catalog"
)

// Entry is one flattened row of the search index, one per catalog item
type Entry struct {
	SectionID   string       `json:"section_id"`
	SectionName string       `json:"section_name"`
	ItemID      string       `json:"item_id"`
	ItemName    string       `json:"item_name"`
	Description string       `json:"description"`
	Searchable  string       `json:"-"` // Lower-cased text of the section header and the whole item
	Item        catalog.Item `json:"-"`
}

// BuildIndex flattens sections into entries, in section order then item order.
// It does not validate id uniqueness.
func BuildIndex(sections []catalog.Section) []Entry {
	total := 0
	for _, sec := range sections {
		total += len(sec.Items)
	}

	index := make([]Entry, 0, total)
	for _, sec := range sections {
		for _, item := range sec.Items {
			index = append(index, Entry{
				SectionID:   sec.ID,
				SectionName: sec.Name,
				ItemID:      item.ID,
				ItemName:    item.Name,
				Description: EntryDescription(item, sec),
				Searchable:  strings.ToLower(serialize(sec, item)),
				Item:        item,
			})
		}
	}
	return index
}

// EntryDescription returns the first non-empty of the item summary and the
// section description, or "" when both are empty.
func EntryDescription(item catalog.Item, sec catalog.Section) string {
	for _, candidate := range []string{item.Summary, sec.Description} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// serialize writes one "key: value" line per field. Values are written raw, so any
// substring of any field value is also a substring of the result.
func serialize(sec catalog.Section, item catalog.Item) string {
	var b strings.Builder

	field := func(key, value string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}

	field("section.id", sec.ID)
	field("section.name", sec.Name)
	field("section.description", sec.Description)

	field("item.id", item.ID)
	field("item.name", item.Name)
	field("item.label", item.Label)
	field("item.summary", item.Summary)
	field("item.level", string(item.Level))
	for _, tag := range item.Tags {
		field("item.tag", tag)
	}
	for _, kp := range item.KeyPoints {
		field("item.key_point", kp)
	}
	for _, ex := range item.Examples {
		field("example.id", ex.ID)
		field("example.title", ex.Title)
		field("example.description", ex.Description)
		field("example.code", ex.Code)
	}

	return b.String()
}
