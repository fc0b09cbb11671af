// Package state holds the per-(level, context) UI state of the grid: column
// filters, sort specs, column widths, row selection, the expansion set, and
// the single edit session. The store does no I/O and is safe to construct in
// tests; every grid instance owns its own store.
package state

import (
	"fmt"
	"sort"
	"strings"
)

// RootContext is the context key for the top level (no parent row).
const RootContext = "__root__"

// SanitizeKey strips braces and quotes from a record id so it can serve as a
// context key or row identity. Empty input maps to RootContext.
func SanitizeKey(id string) string {
	id = strings.Map(func(r rune) rune {
		switch r {
		case '{', '}', '\'':
			return -1
		}
		return r
	}, id)
	if id == "" {
		return RootContext
	}
	return id
}

// Scope addresses one instance of a level: the same child level descriptor is
// instantiated once per expanded parent row, and each instance needs its own
// filter/sort/width state.
type Scope struct {
	Level   int
	Context string
}

// RootScope returns the scope of the top level.
func RootScope() Scope { return Scope{Level: 0, Context: RootContext} }

// ScopeFor builds a scope from a level and a raw parent record id.
func ScopeFor(level int, parentID string) Scope {
	return Scope{Level: level, Context: SanitizeKey(parentID)}
}

// RowID is the stable composite identity of a rendered row: "<level>-<key>".
// Re-rendering a record under the same identity replaces its prior instance.
type RowID string

// RowIDFor composes a row identity from a level and a raw record key.
func RowIDFor(level int, recordKey string) RowID {
	key := strings.Map(func(r rune) rune {
		switch r {
		case '{', '}', '\'':
			return -1
		}
		return r
	}, recordKey)
	return RowID(fmt.Sprintf("%d-%s", level, key))
}

// Op is a filter comparison operator.
type Op string

const (
	OpContains Op = "contains"
	OpEquals   Op = "equals"
	OpStarts   Op = "starts"
	OpEnds     Op = "ends"
	OpGT       Op = "gt"
	OpLT       Op = "lt"
	OpGTE      Op = "gte"
	OpLTE      Op = "lte"
)

// Filter is one active column filter.
type Filter struct {
	Op    Op     `json:"op"`
	Value string `json:"value"`
	// LookupID is the resolved target identity when the filter was applied by
	// picking a lookup candidate; client evaluation then matches by identity
	// instead of display text.
	LookupID string `json:"id,omitempty"`
}

// Active reports whether the filter carries a usable value. "false" and "0"
// are deliberate values for boolean columns, not blanks.
func (f Filter) Active() bool {
	return strings.TrimSpace(f.Value) != ""
}

// Dir is a sort direction.
type Dir string

const (
	Asc  Dir = "asc"
	Desc Dir = "desc"
)

// Sort is one entry of a scope's sort spec; list order is tie-break
// precedence (first entry primary).
type Sort struct {
	Key string `json:"key"`
	Dir Dir    `json:"direction"`
}

// Store is the scoped state container. Filters, sorts and widths are
// independently addressable; clearing one never affects another.
type Store struct {
	filters  map[Scope]map[string]Filter
	sorts    map[Scope][]Sort
	widths   map[Scope]map[string]int
	selected map[int]map[string]bool
	expanded map[RowID]bool
}

// NewStore returns an empty state container.
func NewStore() *Store {
	return &Store{
		filters:  map[Scope]map[string]Filter{},
		sorts:    map[Scope][]Sort{},
		widths:   map[Scope]map[string]int{},
		selected: map[int]map[string]bool{},
		expanded: map[RowID]bool{},
	}
}

// Filter returns the active filter for a column in a scope.
func (s *Store) Filter(sc Scope, col string) (Filter, bool) {
	f, ok := s.filters[sc][col]
	return f, ok
}

// Filters returns a copy of the scope's filter map.
func (s *Store) Filters(sc Scope) map[string]Filter {
	out := make(map[string]Filter, len(s.filters[sc]))
	for k, v := range s.filters[sc] {
		out[k] = v
	}
	return out
}

// FilterColumns returns the scope's filtered column keys in stable order.
func (s *Store) FilterColumns(sc Scope) []string {
	keys := make([]string, 0, len(s.filters[sc]))
	for k := range s.filters[sc] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetFilter stores a filter; an inactive filter clears the entry instead.
func (s *Store) SetFilter(sc Scope, col string, f Filter) {
	if !f.Active() {
		s.ClearFilter(sc, col)
		return
	}
	if f.Op == "" {
		f.Op = OpContains
	}
	if s.filters[sc] == nil {
		s.filters[sc] = map[string]Filter{}
	}
	s.filters[sc][col] = f
}

// ClearFilter removes one column filter from a scope.
func (s *Store) ClearFilter(sc Scope, col string) {
	delete(s.filters[sc], col)
}

// ClearAllFilters drops every filter in every scope (global filter reset).
func (s *Store) ClearAllFilters() {
	s.filters = map[Scope]map[string]Filter{}
}

// Sorts returns a copy of the scope's sort spec.
func (s *Store) Sorts(sc Scope) []Sort {
	cur := s.sorts[sc]
	out := make([]Sort, len(cur))
	copy(out, cur)
	return out
}

// ToggleSort applies a sort-header activation.
//
// Single (additive=false): the column becomes the only sort entry, toggling
// ascending/descending if it already was one. Additive (shift-click): the
// column is appended ascending, an ascending entry flips to descending, and a
// descending entry is removed; other entries keep their relative order.
func (s *Store) ToggleSort(sc Scope, col string, additive bool) {
	cur := s.sorts[sc]
	idx := -1
	for i, e := range cur {
		if e.Key == col {
			idx = i
			break
		}
	}

	if !additive {
		if idx >= 0 {
			e := cur[idx]
			if e.Dir == Asc {
				e.Dir = Desc
			} else {
				e.Dir = Asc
			}
			s.sorts[sc] = []Sort{e}
		} else {
			s.sorts[sc] = []Sort{{Key: col, Dir: Asc}}
		}
		return
	}

	switch {
	case idx < 0:
		s.sorts[sc] = append(cur, Sort{Key: col, Dir: Asc})
	case cur[idx].Dir == Asc:
		cur[idx].Dir = Desc
	default:
		s.sorts[sc] = append(cur[:idx:idx], cur[idx+1:]...)
	}
}

// ClearSorts drops the scope's sort spec.
func (s *Store) ClearSorts(sc Scope) {
	delete(s.sorts, sc)
}

// Width returns the stored pixel width for a column in a scope.
func (s *Store) Width(sc Scope, col string) (int, bool) {
	w, ok := s.widths[sc][col]
	return w, ok
}

// SetWidth stores a column width for the scope only; siblings at the same
// depth under other parents are unaffected.
func (s *Store) SetWidth(sc Scope, col string, px int) {
	if s.widths[sc] == nil {
		s.widths[sc] = map[string]int{}
	}
	s.widths[sc][col] = px
}

// ToggleSelect flips row selection at a level. Single-select levels replace
// the whole set.
func (s *Store) ToggleSelect(level int, recordKey string, multiple bool) {
	key := SanitizeKey(recordKey)
	if multiple {
		if s.selected[level] == nil {
			s.selected[level] = map[string]bool{}
		}
		if s.selected[level][key] {
			delete(s.selected[level], key)
		} else {
			s.selected[level][key] = true
		}
		return
	}
	s.selected[level] = map[string]bool{key: true}
}

// Selected reports whether a row is selected at its level.
func (s *Store) Selected(level int, recordKey string) bool {
	return s.selected[level][SanitizeKey(recordKey)]
}

// SelectedKeys returns the selected record keys at a level, sorted.
func (s *Store) SelectedKeys(level int) []string {
	keys := make([]string, 0, len(s.selected[level]))
	for k := range s.selected[level] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToggleExpanded flips a row's expansion and reports the new state.
func (s *Store) ToggleExpanded(id RowID) bool {
	if s.expanded[id] {
		delete(s.expanded, id)
		return false
	}
	s.expanded[id] = true
	return true
}

// Expanded reports whether a row currently shows its child level.
func (s *Store) Expanded(id RowID) bool {
	return s.expanded[id]
}

// CollapseAll empties the expansion set (explicit global filter reset only;
// expansion otherwise survives re-renders).
func (s *Store) CollapseAll() {
	s.expanded = map[RowID]bool{}
}
