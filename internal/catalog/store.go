package catalog

import "errors"

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrExampleNotFound = errors.New("example not found")
)

// Store is the immutable in-memory catalog. It is built once and only read afterwards,
// so it is safe for concurrent use without locking.
type Store struct {
	sections []Section
	byID     map[string]int
	bySlug   map[string]int
}

// Stats summarizes the size of a catalog
type Stats struct {
	Sections        int            `json:"sections"`
	Items           int            `json:"items"`
	Examples        int            `json:"examples"`
	ItemsPerSection map[string]int `json:"items_per_section"`
}

// NewStore wraps sections in a Store, keeping their order.
// Id uniqueness is assumed (see Validate); on duplicates the first section wins lookups.
func NewStore(sections []Section) *Store {
	s := &Store{
		sections: sections,
		byID:     make(map[string]int, len(sections)),
		bySlug:   make(map[string]int, len(sections)),
	}
	for i, sec := range sections {
		if _, ok := s.byID[sec.ID]; !ok {
			s.byID[sec.ID] = i
		}
		if _, ok := s.bySlug[sec.Slug]; !ok && sec.Slug != "" {
			s.bySlug[sec.Slug] = i
		}
	}
	return s
}

// Sections returns the ordered section list. Callers must not modify it.
func (s *Store) Sections() []Section {
	return s.sections
}

// Len returns the number of sections
func (s *Store) Len() int {
	return len(s.sections)
}

// Section looks up a section by id
func (s *Store) Section(id string) (Section, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Section{}, false
	}
	return s.sections[i], true
}

// SectionBySlug looks up a section by slug
func (s *Store) SectionBySlug(slug string) (Section, bool) {
	i, ok := s.bySlug[slug]
	if !ok {
		return Section{}, false
	}
	return s.sections[i], true
}

// SelectSection returns the section with the given id, falling back to the first
// section when id is empty or unknown. The bool is false only for an empty catalog.
func (s *Store) SelectSection(id string) (Section, bool) {
	if sec, ok := s.Section(id); ok {
		return sec, true
	}
	if len(s.sections) == 0 {
		return Section{}, false
	}
	return s.sections[0], true
}

// Item looks up an item inside a section
func (s *Store) Item(sectionID, itemID string) (Item, error) {
	sec, ok := s.Section(sectionID)
	if !ok {
		return Item{}, ErrSectionNotFound
	}
	for _, item := range sec.Items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return Item{}, ErrItemNotFound
}

// Stats counts sections, items and examples
func (s *Store) Stats() Stats {
	st := Stats{
		Sections:        len(s.sections),
		ItemsPerSection: make(map[string]int, len(s.sections)),
	}
	for _, sec := range s.sections {
		st.Items += len(sec.Items)
		st.ItemsPerSection[sec.ID] = len(sec.Items)
		for _, item := range sec.Items {
			st.Examples += len(item.Examples)
		}
	}
	return st
}
