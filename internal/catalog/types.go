package catalog

import "fmt"

// Level is the difficulty of an item
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Levels lists every level in ascending difficulty
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// Valid reports whether l is one of the known levels
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// ParseLevel converts a string into a Level, rejecting unknown values
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q: must be one of beginner, intermediate, advanced", s)
	}
	return l, nil
}

// Example is one runnable snippet attached to an item
type Example struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// Item is one catalog entry (a concept or an API)
type Item struct {
	ID        string    `json:"id"`              // Unique within the owning section
	Name      string    `json:"name"`            // e.g. "useState"
	Label     string    `json:"label,omitempty"` // e.g. "State Hook"
	Summary   string    `json:"summary"`
	Level     Level     `json:"level"`
	Tags      []string  `json:"tags"`
	KeyPoints []string  `json:"key_points"`
	Examples  []Example `json:"examples"`
}

// Section is a top-level topic grouping of items
type Section struct {
	ID          string `json:"id"` // Unique across the catalog
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	Description string `json:"description,omitempty"`
	Items       []Item `json:"items"`
}

// FirstExample returns the example shown when an item card is opened
func FirstExample(item Item) (Example, bool) {
	if len(item.Examples) == 0 {
		return Example{}, false
	}
	return item.Examples[0], true
}

// Example looks up an example of the item by id
func (i Item) Example(id string) (Example, bool) {
	for _, ex := range i.Examples {
		if ex.ID == id {
			return ex, true
		}
	}
	return Example{}, false
}
