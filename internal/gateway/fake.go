package gateway

import (
	"context"
	"strconv"
	"strings"

	"nestgrid/internal/query"
	"nestgrid/internal/schema"
)

// PatchCall records one Patch invocation on the Fake.
type PatchCall struct {
	RecordSet string
	Key       string
	Fields    map[string]any
}

// Fake is an in-memory Gateway for tests. Query applies only equality
// clauses against the canned records, which is enough to scope children to a
// parent, and every composed spec is retained for assertions.
type Fake struct {
	Records    map[string][]Record
	Enums      map[string][]Option
	Candidates []Candidate

	Specs   []query.Spec
	Patches []PatchCall
	Calls   struct{ Query, Patch, Search, Enum int }

	QueryErr  error
	PatchErr  error
	SearchErr error
}

// NewFake returns an empty fake.
func NewFake() *Fake {
	return &Fake{
		Records: map[string][]Record{},
		Enums:   map[string][]Option{},
	}
}

// Add appends records to a record set.
func (f *Fake) Add(recordSet string, recs ...Record) {
	f.Records[recordSet] = append(f.Records[recordSet], recs...)
}

// Query implements Gateway.
func (f *Fake) Query(_ context.Context, spec query.Spec) ([]Record, error) {
	f.Calls.Query++
	f.Specs = append(f.Specs, spec)
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	var out []Record
	for _, r := range f.Records[spec.RecordSet] {
		if matchesEq(r, spec.Clauses) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matchesEq(r Record, clauses []query.Clause) bool {
	for _, c := range clauses {
		if c.Op != query.CmpEq {
			continue
		}
		want := clauseOperand(c)
		if !strings.EqualFold(r.Key(c.Field), want) && r.Raw(c.Field) != want {
			return false
		}
	}
	return true
}

func clauseOperand(c query.Clause) string {
	switch {
	case c.Text != nil:
		return *c.Text
	case c.Raw != nil:
		return *c.Raw
	case c.Bool != nil:
		if *c.Bool {
			return "true"
		}
		return "false"
	case c.Number != nil:
		return strconv.FormatFloat(*c.Number, 'f', -1, 64)
	}
	return ""
}

// Patch implements Gateway.
func (f *Fake) Patch(_ context.Context, recordSet, key string, fields map[string]any) error {
	f.Calls.Patch++
	f.Patches = append(f.Patches, PatchCall{RecordSet: recordSet, Key: key, Fields: fields})
	return f.PatchErr
}

// SearchByText implements Gateway.
func (f *Fake) SearchByText(_ context.Context, _ schema.Lookup, text string) ([]Candidate, error) {
	f.Calls.Search++
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var out []Candidate
	for _, c := range f.Candidates {
		if strings.Contains(strings.ToLower(c.Display), strings.ToLower(text)) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ResolveEnumeration implements Gateway.
func (f *Fake) ResolveEnumeration(_ context.Context, recordSet, field string, kind schema.ValueKind) ([]Option, error) {
	f.Calls.Enum++
	if opts, ok := f.Enums[recordSet+"."+field]; ok {
		return opts, nil
	}
	if kind == schema.KindBoolean {
		return YesNoOptions(), nil
	}
	return nil, nil
}
