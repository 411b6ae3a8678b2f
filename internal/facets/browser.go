// Package facets lets clients browse catalog items by level, tag and section, and
// reports how many items carry each value. It is backed by an in-memory bleve
// index using exact keyword terms. Hits are always sorted by catalog position,
// never by relevance.
package facets

import (
	"fmt"
	"slices"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/refcat/mcp-server/internal/catalog"
)

const (
	fieldSection = "section_id"
	fieldLevel   = "level"
	fieldTag     = "tags"
	fieldOrder   = "order"

	batchSize = 100

	// maxTagFacets bounds the tag counts returned with each browse
	maxTagFacets = 50
)

// Filter narrows a browse. Empty fields do not filter; set fields are AND-ed.
type Filter struct {
	SectionID string
	Level     catalog.Level
	Tag       string // Compared case-insensitively
}

// Hit is one browsed item
type Hit struct {
	SectionID string        `json:"section_id"`
	ItemID    string        `json:"item_id"`
	ItemName  string        `json:"item_name"`
	Label     string        `json:"label,omitempty"`
	Level     catalog.Level `json:"level"`
	Tags      []string      `json:"tags"`
}

// Count is the number of matching items carrying one facet value
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Result is a browse outcome: hits in catalog order plus facet counts over the hits
type Result struct {
	Hits     []Hit   `json:"hits"`
	Total    int     `json:"total"`
	Levels   []Count `json:"levels"`
	Tags     []Count `json:"tags"`
	Sections []Count `json:"sections"`
}

type itemRef struct {
	section catalog.Section
	item    catalog.Item
}

// Browser answers faceted browse requests over one catalog
type Browser struct {
	index      Index
	refs       map[string]itemRef
	sectionPos map[string]int
}

// New indexes every item of sections into an in-memory bleve index
func New(sections []catalog.Section) (*Browser, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create facet index: %w", err)
	}

	b := &Browser{
		index:      NewBleveIndexWrapper(idx),
		refs:       make(map[string]itemRef),
		sectionPos: make(map[string]int, len(sections)),
	}

	batch := idx.NewBatch()
	order := 0
	for si, sec := range sections {
		if _, ok := b.sectionPos[sec.ID]; !ok {
			b.sectionPos[sec.ID] = si
		}
		for _, item := range sec.Items {
			id := docID(sec.ID, item.ID)
			b.refs[id] = itemRef{section: sec, item: item}

			if err := batch.Index(id, itemDocument(sec, item, order)); err != nil {
				idx.Close()
				return nil, fmt.Errorf("failed to add item %s to batch: %w", id, err)
			}
			order++

			if batch.Size() >= batchSize {
				if err := idx.Batch(batch); err != nil {
					idx.Close()
					return nil, fmt.Errorf("failed to index batch: %w", err)
				}
				batch = idx.NewBatch()
			}
		}
	}

	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			idx.Close()
			return nil, fmt.Errorf("failed to index final batch: %w", err)
		}
	}

	return b, nil
}

// newWithIndex builds a Browser around an existing index (used by tests)
func newWithIndex(index Index) *Browser {
	return &Browser{
		index:      index,
		refs:       make(map[string]itemRef),
		sectionPos: make(map[string]int),
	}
}

func keywordFieldMapping() *mapping.FieldMapping {
	fm := mapping.NewTextFieldMapping()
	fm.Analyzer = keyword.Name
	fm.IncludeInAll = false
	return fm
}

func buildMapping() mapping.IndexMapping {
	orderField := mapping.NewNumericFieldMapping()
	orderField.IncludeInAll = false

	doc := mapping.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(fieldSection, keywordFieldMapping())
	doc.AddFieldMappingsAt(fieldLevel, keywordFieldMapping())
	doc.AddFieldMappingsAt(fieldTag, keywordFieldMapping())
	doc.AddFieldMappingsAt(fieldOrder, orderField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

func itemDocument(sec catalog.Section, item catalog.Item, order int) map[string]interface{} {
	tags := make([]string, 0, len(item.Tags))
	for _, t := range item.Tags {
		tags = append(tags, strings.ToLower(t))
	}
	return map[string]interface{}{
		fieldSection: sec.ID,
		fieldLevel:   string(item.Level),
		fieldTag:     tags,
		fieldOrder:   float64(order),
	}
}

func docID(sectionID, itemID string) string {
	return sectionID + "/" + itemID
}

// DocCount returns the number of indexed items
func (b *Browser) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close releases the underlying index
func (b *Browser) Close() error {
	return b.index.Close()
}

// Browse returns the items matching f in catalog order, with facet counts
func (b *Browser) Browse(f Filter) (*Result, error) {
	total, err := b.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	req := bleve.NewSearchRequestOptions(buildQuery(f), int(total), 0, false)
	req.SortBy([]string{fieldOrder})
	req.AddFacet(fieldLevel, bleve.NewFacetRequest(fieldLevel, len(catalog.Levels)))
	req.AddFacet(fieldTag, bleve.NewFacetRequest(fieldTag, maxTagFacets))
	req.AddFacet(fieldSection, bleve.NewFacetRequest(fieldSection, max(len(b.sectionPos), 1)))

	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("browse failed: %w", err)
	}

	out := &Result{
		Hits:  make([]Hit, 0, len(res.Hits)),
		Total: int(res.Total),
	}
	for _, h := range res.Hits {
		ref, ok := b.refs[h.ID]
		if !ok {
			continue
		}
		out.Hits = append(out.Hits, Hit{
			SectionID: ref.section.ID,
			ItemID:    ref.item.ID,
			ItemName:  ref.item.Name,
			Label:     ref.item.Label,
			Level:     ref.item.Level,
			Tags:      append([]string{}, ref.item.Tags...),
		})
	}

	out.Levels = levelCounts(facetCounts(res, fieldLevel))
	out.Tags = tagCounts(facetCounts(res, fieldTag))
	out.Sections = b.sectionCounts(facetCounts(res, fieldSection))
	return out, nil
}

func buildQuery(f Filter) query.Query {
	var terms []query.Query
	add := func(field, value string) {
		if value == "" {
			return
		}
		q := bleve.NewTermQuery(value)
		q.SetField(field)
		terms = append(terms, q)
	}
	add(fieldSection, f.SectionID)
	add(fieldLevel, string(f.Level))
	add(fieldTag, strings.ToLower(strings.TrimSpace(f.Tag)))

	if len(terms) == 0 {
		return bleve.NewMatchAllQuery()
	}
	return bleve.NewConjunctionQuery(terms...)
}

func facetCounts(res *bleve.SearchResult, name string) map[string]int {
	counts := make(map[string]int)
	fr, ok := res.Facets[name]
	if !ok || fr == nil || fr.Terms == nil {
		return counts
	}
	for _, tf := range fr.Terms.Terms() {
		counts[tf.Term] = tf.Count
	}
	return counts
}

// levelCounts lists every known level in ascending difficulty, zero counts included
func levelCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(catalog.Levels))
	for _, l := range catalog.Levels {
		out = append(out, Count{Value: string(l), Count: counts[string(l)]})
	}
	return out
}

// tagCounts orders tags by count, then alphabetically
func tagCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for tag, n := range counts {
		out = append(out, Count{Value: tag, Count: n})
	}
	slices.SortFunc(out, func(a, c Count) int {
		if a.Count != c.Count {
			return c.Count - a.Count
		}
		return strings.Compare(a.Value, c.Value)
	})
	return out
}

// sectionCounts lists sections with at least one hit, in catalog order
func (b *Browser) sectionCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for id, n := range counts {
		out = append(out, Count{Value: id, Count: n})
	}
	slices.SortFunc(out, func(a, c Count) int {
		return b.sectionPos[a.Value] - b.sectionPos[c.Value]
	})
	return out
}
