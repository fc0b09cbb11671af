// Package schema describes the record hierarchy the grid renders: one Level
// per tier (record set, key fields, columns, parent linkage) plus the column
// metadata the composer and editors make type decisions from. Pure data;
// loaded once at startup and immutable afterwards.
package schema

import (
	"fmt"
	"strings"
)

// ValueKind tags a column with the editor/filter semantics it gets.
type ValueKind string

const (
	KindText    ValueKind = "text"
	KindNumber  ValueKind = "number"
	KindBoolean ValueKind = "boolean"
	KindChoice  ValueKind = "choice"
	KindLookup  ValueKind = "lookup"
)

// ParseValueKind normalizes a configured kind string. Empty means plain text.
func ParseValueKind(s string) (ValueKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "string":
		return KindText, nil
	case "number":
		return KindNumber, nil
	case "boolean", "bool":
		return KindBoolean, nil
	case "choice":
		return KindChoice, nil
	case "lookup":
		return KindLookup, nil
	}
	return "", fmt.Errorf("unknown column kind %q", s)
}

// Lookup carries the target-side binding for a lookup column.
type Lookup struct {
	// RecordSet is the target record set searched for candidates.
	RecordSet string
	// KeyField is the target's primary-key field.
	KeyField string
	// NameField is the field incremental search matches against.
	NameField string
	// DisplayFields are joined (" - ") into the candidate display string.
	DisplayFields []string
	// Relationship overrides the write-back relationship name. When empty it
	// is derived from the column key (leading "_" and trailing "_value"
	// stripped).
	Relationship string
}

// Column describes one grid column of a level.
type Column struct {
	Key      string
	Label    string
	Editable bool
	Required bool
	Kind     ValueKind
	Lookup   *Lookup
}

// IsLookup reports whether the column holds a record identity. Explicitly
// tagged lookups aside, key naming conventions of the upstream API
// ("_x_value") are treated as lookups too so their values never leak into a
// server filter.
func (c Column) IsLookup() bool {
	if c.Kind == KindLookup {
		return true
	}
	return strings.HasPrefix(c.Key, "_") || strings.HasSuffix(c.Key, "_value")
}

// RelationshipName returns the write-back binding name for a lookup column.
func (c Column) RelationshipName() string {
	if c.Lookup != nil && c.Lookup.Relationship != "" {
		return c.Lookup.Relationship
	}
	name := strings.TrimPrefix(c.Key, "_")
	return strings.TrimSuffix(name, "_value")
}

// Placeholders usable in base-condition values; resolved at compose time.
const (
	PlaceholderRoot   = "$root"
	PlaceholderParent = "$parent"
)

// BaseCondition is one static (or placeholder-parameterized) clause of a
// level's base filter. Op uses the composer's comparison vocabulary
// ("eq", "ne", "gt", "lt", "ge", "le", "contains").
type BaseCondition struct {
	Field string
	Op    string
	Value string
}

// Level describes one tier of the hierarchy.
type Level struct {
	// RecordSet identifies the backing record set (entity set / table).
	RecordSet string
	// Key is the primary-key field of the record set.
	Key string
	// ParentField links a child record to its parent's key. Empty at the root.
	ParentField string
	// Columns in display order. Keys are unique within the level.
	Columns []Column
	// Base is ANDed into every query for this level.
	Base []BaseCondition
	// Child is the index of the child level, or -1 for a leaf.
	Child int
	// Multiple selects checkbox (true) vs radio (false) row selection.
	Multiple bool
	// Title is shown above the level's block.
	Title string
	// SearchField is the field the global text search matches at the root.
	// Defaults to "name".
	SearchField string
}

// Column returns the named column of the level.
func (l Level) Column(key string) (Column, bool) {
	for _, c := range l.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// FieldList is the de-duplicated select list for the level: column keys, the
// primary key, and the parent-linking field when present. Order is stable.
func (l Level) FieldList() []string {
	out := make([]string, 0, len(l.Columns)+2)
	seen := map[string]bool{}
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, c := range l.Columns {
		add(c.Key)
	}
	add(l.Key)
	add(l.ParentField)
	return out
}

// Hierarchy is the ordered list of levels, root first.
type Hierarchy struct {
	Levels []Level
}

// Level returns the descriptor for a level index.
func (h Hierarchy) Level(i int) (Level, bool) {
	if i < 0 || i >= len(h.Levels) {
		return Level{}, false
	}
	return h.Levels[i], true
}

// ColumnAt resolves a column by level and key.
func (h Hierarchy) ColumnAt(level int, key string) (Column, bool) {
	l, ok := h.Level(level)
	if !ok {
		return Column{}, false
	}
	return l.Column(key)
}

// Validate checks structural invariants after configuration load.
func (h Hierarchy) Validate() error {
	if len(h.Levels) == 0 {
		return fmt.Errorf("hierarchy has no levels")
	}
	for i, l := range h.Levels {
		if strings.TrimSpace(l.RecordSet) == "" {
			return fmt.Errorf("level %d: missing record set", i)
		}
		if strings.TrimSpace(l.Key) == "" {
			return fmt.Errorf("level %d (%s): missing key field", i, l.RecordSet)
		}
		if i > 0 && strings.TrimSpace(l.ParentField) == "" {
			return fmt.Errorf("level %d (%s): non-root level requires a parent field", i, l.RecordSet)
		}
		if len(l.Columns) == 0 {
			return fmt.Errorf("level %d (%s): no columns", i, l.RecordSet)
		}
		seen := map[string]bool{}
		for _, c := range l.Columns {
			if strings.TrimSpace(c.Key) == "" {
				return fmt.Errorf("level %d (%s): column with empty key", i, l.RecordSet)
			}
			if seen[c.Key] {
				return fmt.Errorf("level %d (%s): duplicate column key %q", i, l.RecordSet, c.Key)
			}
			seen[c.Key] = true
			if c.Kind == KindLookup && c.Lookup == nil {
				return fmt.Errorf("level %d (%s): lookup column %q missing lookup binding", i, l.RecordSet, c.Key)
			}
		}
		switch {
		case l.Child == -1:
			// leaf
		case l.Child == i+1 && l.Child < len(h.Levels):
			// chained child
		default:
			return fmt.Errorf("level %d (%s): child must be %d or -1, got %d", i, l.RecordSet, i+1, l.Child)
		}
	}
	return nil
}
