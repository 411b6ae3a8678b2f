package tools

import (
	"io/fs"
	"sync"
	"testing"
	"testing/fstest"
)

const hooksSectionJSON = `{
  "id": "hooks",
  "slug": "hooks",
  "name": "Hooks",
  "short_name": "Hooks",
  "description": "React hooks",
  "items": [
    {
      "id": "use-state",
      "name": "useState",
      "label": "State Hook",
      "summary": "Adds local state to a component.",
      "level": "beginner",
      "tags": ["state", "hooks"],
      "key_points": ["Returns a value and a setter"],
      "examples": [
        {"id": "counter", "title": "Counter", "code": "const [n, setN] = useState(0);"},
        {"id": "toggle", "title": "Toggle", "description": "Boolean state", "code": "const [on, setOn] = useState(false);\n// flipSwitch"}
      ]
    },
    {
      "id": "use-effect",
      "name": "useEffect",
      "label": "Effect Hook",
      "summary": "",
      "level": "intermediate",
      "tags": ["effects"],
      "key_points": ["Runs after render"],
      "examples": [
        {"id": "fetch", "title": "Fetch data", "code": "useEffect(() => { fetch(url) }, [url]);"}
      ]
    }
  ]
}`

const componentsSectionYAML = `id: components
slug: components
name: Components
short_name: Comp
items:
  - id: props
    name: Props
    summary: Pass data to children.
    level: beginner
    tags: [props]
`

func fixtureFiles() fstest.MapFS {
	return fstest.MapFS{
		"01-hooks.json":       {Data: []byte(hooksSectionJSON)},
		"02-components.yaml":  {Data: []byte(componentsSectionYAML)},
		"notes/README.md":     {Data: []byte("not a section")},
		"drafts/03-empty.yml": {Data: []byte("id: drafts\nslug: drafts\nname: Drafts\nshort_name: D\nitems: []\n")},
	}
}

// mapDataProvider serves a mutable in-memory catalog
type mapDataProvider struct {
	mu    sync.Mutex
	files fstest.MapFS
	err   error
}

func newMapDataProvider(files fstest.MapFS) *mapDataProvider {
	return &mapDataProvider{files: files}
}

func (p *mapDataProvider) FS() (fs.FS, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	// Copy so a reload in flight never sees a half-edited tree
	files := make(fstest.MapFS, len(p.files))
	for name, f := range p.files {
		files[name] = f
	}
	return files, nil
}

func (p *mapDataProvider) Describe() string {
	return "in-memory catalog"
}

func (p *mapDataProvider) set(name, data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[name] = &fstest.MapFile{Data: []byte(data)}
}

func (p *mapDataProvider) remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.files, name)
}

func newTestCatalog(t *testing.T, provider DataProvider) *Catalog {
	t.Helper()

	c, err := NewCatalog(provider, "", 8)
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
