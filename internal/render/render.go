// Package render turns catalog items and examples into markdown cards and
// highlighted HTML. HTML output is cached per example.
package render

import (
	"bytes"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"

	"github.com/refcat/mcp-server/internal/catalog"
)

// Format selects the output of an example render
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// DefaultCacheSize is used when New receives a non-positive size
const DefaultCacheSize = 256

// codeLanguage is the fence language of every example
const codeLanguage = "jsx"

// ParseFormat maps "" to markdown and rejects unknown formats
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown format %q: must be markdown or html", s)
}

// Renderer renders items and examples. It is safe for concurrent use.
type Renderer struct {
	md    goldmark.Markdown
	cache *lru.Cache[string, string]
}

// New creates a Renderer whose HTML cache holds up to cacheSize examples
func New(cacheSize int) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
	)

	return &Renderer{md: md, cache: cache}, nil
}

// ItemCard renders the card of an item: header, summary, key points, tags and
// the list of its examples
func (r *Renderer) ItemCard(sec catalog.Section, item catalog.Item) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", item.Name)
	meta := []string{sec.Name, string(item.Level)}
	if item.Label != "" {
		meta = append([]string{item.Label}, meta...)
	}
	fmt.Fprintf(&b, "_%s_\n\n", strings.Join(meta, " · "))

	if item.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", item.Summary)
	}

	if len(item.KeyPoints) > 0 {
		b.WriteString("## Key points\n\n")
		for _, kp := range item.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", kp)
		}
		b.WriteString("\n")
	}

	if len(item.Tags) > 0 {
		tags := make([]string, 0, len(item.Tags))
		for _, t := range item.Tags {
			tags = append(tags, "`"+t+"`")
		}
		fmt.Fprintf(&b, "Tags: %s\n\n", strings.Join(tags, " "))
	}

	b.WriteString("## Examples\n\n")
	if len(item.Examples) == 0 {
		b.WriteString("No examples yet.\n")
		return b.String()
	}
	for _, ex := range item.Examples {
		fmt.Fprintf(&b, "- **%s** (`%s`)", ex.Title, ex.ID)
		if ex.Description != "" {
			fmt.Fprintf(&b, ": %s", ex.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ExampleMarkdown renders one example with its code in a fenced block
func (r *Renderer) ExampleMarkdown(item catalog.Item, ex catalog.Example) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s: %s\n\n", item.Name, ex.Title)
	if ex.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", ex.Description)
	}

	fence := codeFence(ex.Code)
	fmt.Fprintf(&b, "%s%s\n%s\n%s\n", fence, codeLanguage, strings.TrimRight(ex.Code, "\n"), fence)
	return b.String()
}

// Example renders an example in the requested format. sectionID scopes the cache key.
func (r *Renderer) Example(sectionID string, item catalog.Item, ex catalog.Example, format Format) (string, error) {
	md := r.ExampleMarkdown(item, ex)
	if format != FormatHTML {
		return md, nil
	}

	key := sectionID + "/" + item.ID + "/" + ex.ID
	if html, ok := r.cache.Get(key); ok {
		return html, nil
	}

	html, err := r.HTML(md)
	if err != nil {
		return "", fmt.Errorf("failed to render example %s: %w", key, err)
	}
	r.cache.Add(key, html)
	return html, nil
}

// HTML converts markdown to HTML
func (r *Renderer) HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

// CachedCount returns how many examples currently have cached HTML
func (r *Renderer) CachedCount() int {
	return r.cache.Len()
}

// codeFence returns a backtick fence longer than any backtick run inside code
func codeFence(code string) string {
	longest, run := 0, 0
	for _, c := range code {
		if c == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}
