package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// DefaultPattern matches every section file below the catalog root
const DefaultPattern = "**/*.{json,yaml,yml}"

const schemaURL = "https://refcat.dev/schema/section.json"

//go:embed section.schema.json
var sectionSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// sectionSchema compiles the embedded section schema on first use
func sectionSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(sectionSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("failed to parse section schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("failed to add section schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Load reads every section file matched by pattern from fsys, in lexical path order.
// Each file holds exactly one section, as JSON or YAML. Files are validated against the
// section schema and the decoded catalog is checked with Validate.
func Load(fsys fs.FS, pattern string) ([]Section, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	paths, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to match catalog files %q: %w", pattern, err)
	}
	slices.Sort(paths)

	sections := make([]Section, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("loading section %s: %w", p, err)
		}
		sec, err := ParseSection(p, data)
		if err != nil {
			return nil, fmt.Errorf("loading section %s: %w", p, err)
		}
		sections = append(sections, sec)
	}

	if err := Validate(sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// ParseSection decodes and schema-checks a single section document.
// The file name only selects the format: .yaml and .yml are YAML, everything else JSON.
func ParseSection(name string, data []byte) (Section, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		converted, err := yamlToJSON(data)
		if err != nil {
			return Section{}, err
		}
		data = converted
	}

	sch, err := sectionSchema()
	if err != nil {
		return Section{}, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return Section{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return Section{}, fmt.Errorf("schema validation failed: %s", strings.Join(flattenSchemaErrors(verr), "; "))
		}
		return Section{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var sec Section
	if err := json.Unmarshal(data, &sec); err != nil {
		return Section{}, fmt.Errorf("failed to decode section: %w", err)
	}
	normalize(&sec)
	return sec, nil
}

// normalize replaces omitted lists with empty ones so they encode as [] rather than null
func normalize(sec *Section) {
	if sec.Items == nil {
		sec.Items = []Item{}
	}
	for i := range sec.Items {
		item := &sec.Items[i]
		if item.Tags == nil {
			item.Tags = []string{}
		}
		if item.KeyPoints == nil {
			item.KeyPoints = []string{}
		}
		if item.Examples == nil {
			item.Examples = []Example{}
		}
	}
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share one schema
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML to JSON: %w", err)
	}
	return out, nil
}

var schemaPrinter = message.NewPrinter(language.English)

// flattenSchemaErrors collects leaf validation messages with their instance path
func flattenSchemaErrors(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "$"
		if len(verr.InstanceLocation) > 0 {
			loc = "$." + strings.Join(verr.InstanceLocation, ".")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.ErrorKind.LocalizedString(schemaPrinter))}
	}

	var msgs []string
	for _, cause := range verr.Causes {
		msgs = append(msgs, flattenSchemaErrors(cause)...)
	}
	return msgs
}

// Validate checks id uniqueness: section ids across the catalog, item ids within
// their section and example ids within their item. Every violation is reported.
func Validate(sections []Section) error {
	var errs []error

	seenSections := make(map[string]bool, len(sections))
	for _, sec := range sections {
		if seenSections[sec.ID] {
			errs = append(errs, fmt.Errorf("duplicate section id %q", sec.ID))
		}
		seenSections[sec.ID] = true

		seenItems := make(map[string]bool, len(sec.Items))
		for _, item := range sec.Items {
			if seenItems[item.ID] {
				errs = append(errs, fmt.Errorf("section %q: duplicate item id %q", sec.ID, item.ID))
			}
			seenItems[item.ID] = true

			if !item.Level.Valid() {
				errs = append(errs, fmt.Errorf("section %q: item %q has unknown level %q", sec.ID, item.ID, item.Level))
			}

			seenExamples := make(map[string]bool, len(item.Examples))
			for _, ex := range item.Examples {
				if seenExamples[ex.ID] {
					errs = append(errs, fmt.Errorf("section %q: item %q: duplicate example id %q", sec.ID, item.ID, ex.ID))
				}
				seenExamples[ex.ID] = true
			}
		}
	}

	return errors.Join(errs...)
}
