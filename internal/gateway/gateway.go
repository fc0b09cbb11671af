// Package gateway defines the remote data contract the grid core consumes —
// query with filter and order, patch one record, text search for lookups, and
// enumeration resolution — plus the shipped implementations: an OData-style
// HTTP client and a database/sql backend (SQLite or Postgres).
package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"nestgrid/internal/query"
	"nestgrid/internal/schema"
)

// DisplaySuffix marks the display-label companion of a raw field value in a
// record ("statuscode@display"). Rendering prefers companions over raw codes.
const DisplaySuffix = "@display"

// Record is an open field map as returned by a gateway query.
type Record map[string]any

// Raw returns the record's raw value for a field as a string. Missing and nil
// values are empty.
func (r Record) Raw(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// Key returns the sanitized record identity under a key field (braces/quotes
// stripped, as upstream APIs decorate GUIDs).
func (r Record) Key(field string) string {
	return strings.Map(func(c rune) rune {
		switch c {
		case '{', '}', '\'':
			return -1
		}
		return c
	}, r.Raw(field))
}

// Display returns the presentation value for a field: the display companion
// when present, otherwise the raw value with booleans mapped to Yes/No.
func (r Record) Display(field string) string {
	if v, ok := r[field+DisplaySuffix]; ok && v != nil {
		if s := fmt.Sprint(v); s != "" {
			return s
		}
	}
	if b, ok := r[field].(bool); ok {
		if b {
			return "Yes"
		}
		return "No"
	}
	return r.Raw(field)
}

// Candidate is one lookup search hit.
type Candidate struct {
	Key     string
	Display string
}

// Option is one enumerated choice of a choice/boolean field.
type Option struct {
	Value string
	Label string
}

// YesNoOptions is the fallback pair when boolean enumeration resolution
// fails.
func YesNoOptions() []Option {
	return []Option{{Value: "true", Label: "Yes"}, {Value: "false", Label: "No"}}
}

// Gateway is the remote data contract the grid core depends on.
type Gateway interface {
	// Query executes a composed query and returns the matching records.
	Query(ctx context.Context, spec query.Spec) ([]Record, error)
	// Patch updates one record; fields holds the typed field/value pairs
	// (lookup edits pass a relationship binding via Binding).
	Patch(ctx context.Context, recordSet, key string, fields map[string]any) error
	// SearchByText runs incremental lookup search. Blank text returns no
	// candidates without calling out.
	SearchByText(ctx context.Context, lk schema.Lookup, text string) ([]Candidate, error)
	// ResolveEnumeration lists the choices of a choice/boolean field. Failure
	// yields an empty list for choice and the Yes/No pair for boolean.
	ResolveEnumeration(ctx context.Context, recordSet, field string, kind schema.ValueKind) ([]Option, error)
}

// Binding is the patch value for a lookup edit: bind the record's
// relationship to the target record instead of writing a raw value. Field is
// the owning lookup column key, for backends that store the identity
// directly.
type Binding struct {
	Relationship string
	RecordSet    string
	Key          string
	Field        string
}

// enumCache memoizes ResolveEnumeration per (record set, field, kind), as
// enumerations are static for a session.
type enumCache struct {
	mu sync.Mutex
	m  map[string][]Option
}

func (c *enumCache) get(recordSet, field string, kind schema.ValueKind) ([]Option, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	opts, ok := c.m[recordSet+"|"+field+"|"+string(kind)]
	return opts, ok
}

func (c *enumCache) put(recordSet, field string, kind schema.ValueKind, opts []Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]Option{}
	}
	c.m[recordSet+"|"+field+"|"+string(kind)] = opts
}
