package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/refcat/mcp-server/internal/catalog"
	"github.com/refcat/mcp-server/internal/facets"
	"github.com/refcat/mcp-server/internal/render"
	"github.com/refcat/mcp-server/internal/search"
)

// SectionSummary is a section without its items
type SectionSummary struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	Description string `json:"description,omitempty"`
	ItemCount   int    `json:"item_count"`
	URI         string `json:"uri"` // Resource holding the full section
}

// ItemRef names an item inside a section listing
type ItemRef struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Label string        `json:"label,omitempty"`
	Level catalog.Level `json:"level"`
}

// ListSectionsInput is empty; list_sections takes no arguments
type ListSectionsInput struct{}

type ListSectionsOutput struct {
	Sections []SectionSummary `json:"sections"`
	Total    int              `json:"total"`
}

type GetSectionInput struct {
	SectionID string `json:"section_id,omitempty" jsonschema:"Section ID (optional, defaults to the first section)"`
	Query     string `json:"query,omitempty" jsonschema:"Filter the section's items by name, label, summary, tag or key point (optional)"`
}

type GetSectionOutput struct {
	Section  SectionSummary `json:"section"`
	Items    []catalog.Item `json:"items"`
	Query    string         `json:"query,omitempty"`
	Fallback bool           `json:"fallback,omitempty"` // Requested section was unknown; the first section was returned
}

type FilterSectionsInput struct {
	Query string `json:"query" jsonschema:"Case-insensitive text matched against item name, label, summary, tags and key points"`
}

// FilteredSection is a section reduced to its matching items
type FilteredSection struct {
	Section SectionSummary `json:"section"`
	Items   []ItemRef      `json:"items"`
}

type FilterSectionsOutput struct {
	Sections []FilteredSection `json:"sections"`
	Query    string            `json:"query"`
	Count    int               `json:"count"` // Matching items across all sections
}

type SearchCatalogInput struct {
	Query string `json:"query" jsonschema:"Case-insensitive text matched against every field of every item, including example code"`
}

// SearchHit is one global search result
type SearchHit struct {
	SectionID   string `json:"section_id"`
	SectionName string `json:"section_name"`
	ItemID      string `json:"item_id"`
	ItemName    string `json:"item_name"`
	Description string `json:"description"`
}

type SearchCatalogOutput struct {
	Results []SearchHit `json:"results"`
	Query   string      `json:"query"`
	Count   int         `json:"count"`
}

type GetItemInput struct {
	SectionID string `json:"section_id" jsonschema:"Section ID"`
	ItemID    string `json:"item_id" jsonschema:"Item ID within the section"`
}

type GetItemOutput struct {
	SectionID   string       `json:"section_id"`
	SectionName string       `json:"section_name"`
	Item        catalog.Item `json:"item"`
}

type GetExampleInput struct {
	SectionID string `json:"section_id" jsonschema:"Section ID"`
	ItemID    string `json:"item_id" jsonschema:"Item ID within the section"`
	ExampleID string `json:"example_id,omitempty" jsonschema:"Example ID (optional, defaults to the item's first example)"`
	Format    string `json:"format,omitempty" jsonschema:"Output format: markdown or html (optional, defaults to markdown)"`
}

type GetExampleOutput struct {
	SectionID string          `json:"section_id"`
	ItemID    string          `json:"item_id"`
	Example   catalog.Example `json:"example"`
	Format    render.Format   `json:"format"`
	Rendered  string          `json:"rendered"`
}

type BrowseItemsInput struct {
	Level     string `json:"level,omitempty" jsonschema:"Difficulty: beginner, intermediate or advanced (optional)"`
	Tag       string `json:"tag,omitempty" jsonschema:"Tag, compared case-insensitively (optional)"`
	SectionID string `json:"section_id,omitempty" jsonschema:"Restrict to one section (optional)"`
}

type BrowseItemsOutput struct {
	Items    []facets.Hit   `json:"items"`
	Total    int            `json:"total"`
	Levels   []facets.Count `json:"levels"`
	Tags     []facets.Count `json:"tags"`
	Sections []facets.Count `json:"sections"`
}

// ReloadCatalogInput is empty; reload_catalog takes no arguments
type ReloadCatalogInput struct{}

type ReloadCatalogOutput struct {
	Reloaded bool   `json:"reloaded"`
	Sections int    `json:"sections"`
	Items    int    `json:"items"`
	Examples int    `json:"examples"`
	LoadedAt string `json:"loaded_at"` // RFC 3339
	Message  string `json:"message"`
}

func summarize(sec catalog.Section) SectionSummary {
	return SectionSummary{
		ID:          sec.ID,
		Slug:        sec.Slug,
		Name:        sec.Name,
		ShortName:   sec.ShortName,
		Description: sec.Description,
		ItemCount:   len(sec.Items),
		URI:         sectionURI(sec),
	}
}

// ListSections returns every section in catalog order
func (c *Catalog) ListSections(ctx context.Context, req *mcp.CallToolRequest, input ListSectionsInput) (*mcp.CallToolResult, ListSectionsOutput, error) {
	snap, release, err := c.acquire()
	if err != nil {
		return nil, ListSectionsOutput{}, err
	}
	defer release()

	sections := snap.store.Sections()
	out := ListSectionsOutput{
		Sections: make([]SectionSummary, 0, len(sections)),
		Total:    len(sections),
	}
	for _, sec := range sections {
		out.Sections = append(out.Sections, summarize(sec))
	}
	return nil, out, nil
}

// GetSection returns one section with its items, optionally filtered by query.
// An unknown or empty section id selects the first section.
func (c *Catalog) GetSection(ctx context.Context, req *mcp.CallToolRequest, input GetSectionInput) (*mcp.CallToolResult, GetSectionOutput, error) {
	snap, release, err := c.acquire()
	if err != nil {
		return nil, GetSectionOutput{}, err
	}
	defer release()

	sec, ok := snap.store.SelectSection(input.SectionID)
	if !ok {
		return nil, GetSectionOutput{}, fmt.Errorf("catalog is empty: %w", catalog.ErrSectionNotFound)
	}

	out := GetSectionOutput{
		Section:  summarize(sec),
		Items:    sec.Items,
		Query:    input.Query,
		Fallback: input.SectionID != "" && input.SectionID != sec.ID,
	}
	if search.NormalizeQuery(input.Query) != "" {
		filtered := search.FilterSections([]catalog.Section{sec}, input.Query)
		out.Items = []catalog.Item{}
		if len(filtered) > 0 {
			out.Items = filtered[0].Items
		}
	}
	if out.Items == nil {
		out.Items = []catalog.Item{}
	}

	c.debugf("get_section id=%q query=%q -> %s (%d items)", input.SectionID, input.Query, sec.ID, len(out.Items))
	return nil, out, nil
}

// FilterSections narrows every section to the items matching the query
func (c *Catalog) FilterSections(ctx context.Context, req *mcp.CallToolRequest, input FilterSectionsInput) (*mcp.CallToolResult, FilterSectionsOutput, error) {
	snap, release, err := c.acquire()
	if err != nil {
		return nil, FilterSectionsOutput{}, err
	}
	defer release()

	filtered := search.FilterSections(snap.store.Sections(), input.Query)
	out := FilterSectionsOutput{
		Sections: make([]FilteredSection, 0, len(filtered)),
		Query:    input.Query,
	}
	for _, sec := range filtered {
		filteredSec := FilteredSection{
			Section: summarize(sec),
			Items:   make([]ItemRef, 0, len(sec.Items)),
		}
		for _, item := range sec.Items {
			filteredSec.Items = append(filteredSec.Items, ItemRef{ID: item.ID, Name: item.Name, Label: item.Label, Level: item.Level})
		}
		out.Count += len(filteredSec.Items)
		out.Sections = append(out.Sections, filteredSec)
	}

	c.debugf("filter_sections query=%q -> %d sections, %d items", input.Query, len(out.Sections), out.Count)
	return nil, out, nil
}

// SearchCatalog runs a global search over every item, including example code
func (c *Catalog) SearchCatalog(ctx context.Context, req *mcp.CallToolRequest, input SearchCatalogInput) (*mcp.CallToolResult, SearchCatalogOutput, error) {
	snap, release, err := c.acquire()
	if err != nil {
		return nil, SearchCatalogOutput{}, err
	}
	defer release()

	entries := search.GlobalSearch(snap.index, input.Query)
	out := SearchCatalogOutput{
		Results: make([]SearchHit, 0, len(entries)),
		Query:   input.Query,
		Count:   len(entries),
	}
	for _, e := range entries {
		out.Results = append(out.Results, SearchHit{
			SectionID:   e.SectionID,
			SectionName: e.SectionName,
			ItemID:      e.ItemID,
			ItemName:    e.ItemName,
			Description: e.Description,
		})
	}

	c.debugf("search_catalog query=%q -> %d hits", input.Query, out.Count)
	return nil, out, nil
}

// GetItem returns a full item
func (c *Catalog) GetItem(ctx context.Context, req *mcp.CallToolRequest, input GetItemInput) (*mcp.CallToolResult, GetItemOutput, error) {
	snap, release, err := c.acquire()
	if err != nil {
		return nil, GetItemOutput{}, err
	}
	defer release()

	item, err := snap.store.Item(input.SectionID, input.ItemID)
	if err != nil {
		return nil, GetItemOutput{}, fmt.Errorf("item %s/%s: %w", input.SectionID, input.ItemID, err)
	}
	sec, _ := snap.store.Section(input.SectionID)

	return nil, GetItemOutput{
		SectionID:   sec.ID,
		SectionName: sec.Name,
		Item:        item,
	}, nil
}

// GetExample renders one example of an item as markdown or highlighted HTML
func (c *Catalog) GetExample(ctx context.Context, req *mcp.CallToolRequest, input GetExampleInput) (*mcp.CallToolResult, GetExampleOutput, error) {
	format, err := render.ParseFormat(input.Format)
	if err != nil {
		return nil, GetExampleOutput{}, err
	}

	snap, release, err := c.acquire()
	if err != nil {
		return nil, GetExampleOutput{}, err
	}
	defer release()

	item, err := snap.store.Item(input.SectionID, input.ItemID)
	if err != nil {
		return nil, GetExampleOutput{}, fmt.Errorf("item %s/%s: %w", input.SectionID, input.ItemID, err)
	}

	var (
		ex catalog.Example
		ok bool
	)
	if input.ExampleID == "" {
		ex, ok = catalog.FirstExample(item)
	} else {
		ex, ok = item.Example(input.ExampleID)
	}
	if !ok {
		return nil, GetExampleOutput{}, fmt.Errorf("example %q of %s/%s: %w", input.ExampleID, input.SectionID, input.ItemID, catalog.ErrExampleNotFound)
	}

	rendered, err := snap.renderer.Example(input.SectionID, item, ex, format)
	if err != nil {
		return nil, GetExampleOutput{}, fmt.Errorf("failed to render example %s: %w", ex.ID, err)
	}

	return nil, GetExampleOutput{
		SectionID: input.SectionID,
		ItemID:    item.ID,
		Example:   ex,
		Format:    format,
		Rendered:  rendered,
	}, nil
}

// BrowseItems lists items by level, tag and section with facet counts
func (c *Catalog) BrowseItems(ctx context.Context, req *mcp.CallToolRequest, input BrowseItemsInput) (*mcp.CallToolResult, BrowseItemsOutput, error) {
	filter := facets.Filter{
		SectionID: input.SectionID,
		Tag:       input.Tag,
	}
	if input.Level != "" {
		level, err := catalog.ParseLevel(input.Level)
		if err != nil {
			return nil, BrowseItemsOutput{}, err
		}
		filter.Level = level
	}

	snap, release, err := c.acquire()
	if err != nil {
		return nil, BrowseItemsOutput{}, err
	}
	defer release()

	if filter.SectionID != "" {
		if _, ok := snap.store.Section(filter.SectionID); !ok {
			return nil, BrowseItemsOutput{}, fmt.Errorf("section %q: %w", filter.SectionID, catalog.ErrSectionNotFound)
		}
	}

	res, err := snap.browser.Browse(filter)
	if err != nil {
		return nil, BrowseItemsOutput{}, err
	}

	c.debugf("browse_items level=%q tag=%q section=%q -> %d hits", input.Level, input.Tag, input.SectionID, res.Total)
	return nil, BrowseItemsOutput{
		Items:    res.Hits,
		Total:    res.Total,
		Levels:   res.Levels,
		Tags:     res.Tags,
		Sections: res.Sections,
	}, nil
}

// ReloadCatalog re-reads the catalog source and swaps the new snapshot in
func (c *Catalog) ReloadCatalog(ctx context.Context, req *mcp.CallToolRequest, input ReloadCatalogInput) (*mcp.CallToolResult, ReloadCatalogOutput, error) {
	stats, err := c.Reload()
	if err != nil {
		if errors.Is(err, ErrCatalogClosed) {
			return nil, ReloadCatalogOutput{}, err
		}
		// Previous snapshot is still served
		prev, statErr := c.Stats()
		if statErr != nil {
			return nil, ReloadCatalogOutput{}, fmt.Errorf("reload failed: %w", err)
		}
		return nil, ReloadCatalogOutput{
			Reloaded: false,
			Sections: prev.Sections,
			Items:    prev.Items,
			Examples: prev.Examples,
			LoadedAt: c.LoadedAt().Format(time.RFC3339),
			Message:  fmt.Sprintf("Reload failed, keeping previous catalog: %v", err),
		}, nil
	}

	return nil, ReloadCatalogOutput{
		Reloaded: true,
		Sections: stats.Sections,
		Items:    stats.Items,
		Examples: stats.Examples,
		LoadedAt: c.LoadedAt().Format(time.RFC3339),
		Message:  fmt.Sprintf("Catalog reloaded from %s: %d sections, %d items", c.provider.Describe(), stats.Sections, stats.Items),
	}, nil
}

// RegisterCatalogTools registers the catalog tools on server
func RegisterCatalogTools(server *mcp.Server, c *Catalog) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_sections",
			Description: "List catalog sections in order with their item counts.",
		},
		c.ListSections,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_section",
			Description: "Get one section with its items. Unknown or empty section_id returns the first section. Optional query filters items by name, label, summary, tags and key points.",
		},
		c.GetSection,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "filter_sections",
			Description: "Filter every section down to the items whose name, label, summary, tags or key points contain the query. Sections with no match are dropped; order is preserved.",
		},
		c.FilterSections,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_catalog",
			Description: "Search every field of every item, including example code. Returns at most 10 hits in catalog order.",
		},
		c.SearchCatalog,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_item",
			Description: "Get a full item: summary, level, tags, key points and examples.",
		},
		c.GetItem,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_example",
			Description: "Render one example of an item as markdown or syntax-highlighted HTML. Defaults to the item's first example.",
		},
		c.GetExample,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "browse_items",
			Description: "Browse items by level, tag and section (all optional, combined with AND). Returns items in catalog order with level, tag and section counts.",
		},
		c.BrowseItems,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "reload_catalog",
			Description: "Reload the catalog from its source. On failure the previous catalog keeps being served.",
		},
		c.ReloadCatalog,
	)
}
