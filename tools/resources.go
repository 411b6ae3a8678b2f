package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/refcat/mcp-server/internal/catalog"
)

const uriScheme = "refcat://"

// RegisterCatalogResources registers the catalog resources on server
func RegisterCatalogResources(server *mcp.Server, c *Catalog) {
	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sections",
		Name:        "sections",
		Description: "Catalog sections in order, without their items",
		MIMEType:    "application/json",
	}, c.handleSectionsResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sections/{sectionId}",
		Name:        "section",
		Description: "One section with all of its items",
		MIMEType:    "application/json",
	}, c.handleSectionResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "items/{sectionId}/{itemId}",
		Name:        "item-card",
		Description: "Markdown card of one item with its examples",
		MIMEType:    "text/markdown",
	}, c.handleItemResource)
}

func (c *Catalog) handleSectionsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	snap, release, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	sections := snap.store.Sections()
	summaries := make([]SectionSummary, 0, len(sections))
	for _, sec := range sections {
		summaries = append(summaries, summarize(sec))
	}
	return jsonResource(req.Params.URI, summaries)
}

func (c *Catalog) handleSectionResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	parts, ok := uriParts(req.Params.URI, "sections/", 1)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	snap, release, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	sec, ok := snap.store.Section(parts[0])
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, sec)
}

func (c *Catalog) handleItemResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	parts, ok := uriParts(req.Params.URI, "items/", 2)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	snap, release, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	item, err := snap.store.Item(parts[0], parts[1])
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	sec, _ := snap.store.Section(parts[0])

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     snap.renderer.ItemCard(sec, item),
		}},
	}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// uriParts splits refcat://<kind><a>/<b>... into exactly n non-empty segments
func uriParts(uri, kind string, n int) ([]string, bool) {
	prefix := uriScheme + kind
	if !strings.HasPrefix(uri, prefix) {
		return nil, false
	}
	parts := strings.Split(strings.TrimPrefix(uri, prefix), "/")
	if len(parts) != n {
		return nil, false
	}
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}

// sectionURI returns the resource URI of a section
func sectionURI(sec catalog.Section) string {
	return uriScheme + "sections/" + sec.ID
}
