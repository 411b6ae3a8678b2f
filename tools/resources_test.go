package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refcat/mcp-server/internal/catalog"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestSectionsResource(t *testing.T) {
	c := newTestCatalog(t, newMapDataProvider(fixtureFiles()))

	res, err := c.handleSectionsResource(context.Background(), readRequest("refcat://sections"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var summaries []SectionSummary
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &summaries))
	require.Len(t, summaries, 3)
	assert.Equal(t, "hooks", summaries[0].ID)
	assert.Equal(t, "refcat://sections/components", summaries[1].URI)
}

func TestSectionResource(t *testing.T) {
	c := newTestCatalog(t, newMapDataProvider(fixtureFiles()))

	res, err := c.handleSectionResource(context.Background(), readRequest("refcat://sections/components"))
	require.NoError(t, err)

	var sec catalog.Section
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &sec))
	assert.Equal(t, "Components", sec.Name)
	require.Len(t, sec.Items, 1)
	assert.Equal(t, "props", sec.Items[0].ID)

	for _, uri := range []string{
		"refcat://sections/nope",
		"refcat://sections/",
		"refcat://sections/hooks/extra",
		"other://sections/hooks",
	} {
		_, err := c.handleSectionResource(context.Background(), readRequest(uri))
		assert.Error(t, err, uri)
	}
}

func TestItemResource(t *testing.T) {
	c := newTestCatalog(t, newMapDataProvider(fixtureFiles()))

	res, err := c.handleItemResource(context.Background(), readRequest("refcat://items/hooks/use-state"))
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", res.Contents[0].MIMEType)

	card := res.Contents[0].Text
	assert.Contains(t, card, "# useState")
	assert.Contains(t, card, "_State Hook · Hooks · beginner_")
	assert.Contains(t, card, "- Returns a value and a setter")
	assert.Contains(t, card, "**Toggle** (`toggle`)")

	_, err = c.handleItemResource(context.Background(), readRequest("refcat://items/hooks/use-memo"))
	assert.Error(t, err)
	_, err = c.handleItemResource(context.Background(), readRequest("refcat://items/hooks"))
	assert.Error(t, err)
}

func TestURIParts(t *testing.T) {
	tests := []struct {
		uri    string
		kind   string
		n      int
		want   []string
		wantOK bool
	}{
		{"refcat://sections/hooks", "sections/", 1, []string{"hooks"}, true},
		{"refcat://items/hooks/use-state", "items/", 2, []string{"hooks", "use-state"}, true},
		{"refcat://items/hooks/", "items/", 2, nil, false},
		{"refcat://items//use-state", "items/", 2, nil, false},
		{"refcat://sections/a/b", "sections/", 1, nil, false},
		{"refcat://items/a/b", "sections/", 2, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, ok := uriParts(tt.uri, tt.kind, tt.n)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
