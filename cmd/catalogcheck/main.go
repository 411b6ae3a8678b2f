package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/refcat/mcp-server/internal/catalog"
	"github.com/refcat/mcp-server/internal/facets"
	"github.com/refcat/mcp-server/internal/search"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <catalog-dir> [query]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s tools/data/sections hook\n", os.Args[0])
		os.Exit(1)
	}

	catalogDir := os.Args[1]

	log.Printf("Catalog check: %s", catalogDir)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// Step 1: Load and validate
	startTime := time.Now()
	sections, err := catalog.Load(os.DirFS(catalogDir), catalog.DefaultPattern)
	if err != nil {
		log.Fatalf("Catalog is invalid: %v", err)
	}
	stats := catalog.NewStore(sections).Stats()
	log.Printf("✓ Loaded %d sections, %d items, %d examples in %v",
		stats.Sections, stats.Items, stats.Examples, time.Since(startTime).Round(time.Millisecond))

	for _, sec := range sections {
		log.Printf("  %-28s %3d items", sec.ID, stats.ItemsPerSection[sec.ID])
	}

	// Step 2: Facet counts
	browser, err := facets.New(sections)
	if err != nil {
		log.Fatalf("Failed to build facet index: %v", err)
	}
	defer browser.Close()

	res, err := browser.Browse(facets.Filter{})
	if err != nil {
		log.Fatalf("Failed to browse catalog: %v", err)
	}
	for _, c := range res.Levels {
		log.Printf("  level %-14s %3d items", c.Value, c.Count)
	}
	if len(res.Tags) > 0 {
		top := res.Tags[0]
		log.Printf("  most used tag: %s (%d items)", top.Value, top.Count)
	}

	if len(os.Args) < 3 {
		return
	}

	// Step 3: Run the query through both search shapes
	query := os.Args[2]
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	filtered := search.FilterSections(sections, query)
	log.Printf("Filter %q: %d sections", query, len(filtered))
	for _, sec := range filtered {
		for _, item := range sec.Items {
			log.Printf("  %s / %s", sec.ID, item.ID)
		}
	}

	hits := search.GlobalSearch(search.BuildIndex(sections), query)
	log.Printf("Search %q: %d hits (max %d)", query, len(hits), search.MaxGlobalResults)
	for _, hit := range hits {
		log.Printf("  %s / %s: %s", hit.SectionID, hit.ItemID, hit.Description)
	}
}
