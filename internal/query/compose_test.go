package query

import (
	"strings"
	"testing"

	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

const rootID = "11111111-2222-3333-4444-555555555555"

func demoComposer(st *state.Store) Composer {
	return Composer{Hierarchy: schema.Demo(), State: st, RootRecordID: rootID}
}

func TestCompose_NumericGTEFilterRendersGe(t *testing.T) {
	st := state.NewStore()
	st.SetFilter(state.RootScope(), "estimatedvalue", state.Filter{Op: state.OpGTE, Value: "50000"})

	spec, err := demoComposer(st).Compose(0, "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := spec.FilterString(); !strings.Contains(got, "estimatedvalue ge 50000") {
		t.Fatalf("filter %q missing clause %q", got, "estimatedvalue ge 50000")
	}
}

func TestCompose_LookupFilterNeverReachesServer(t *testing.T) {
	st := state.NewStore()
	st.SetFilter(state.RootScope(), "_parentcontactid_value", state.Filter{
		Op: state.OpContains, Value: "Ada", LookupID: "{99999999-0000-0000-0000-000000000001}",
	})

	spec, err := demoComposer(st).Compose(0, "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := spec.FilterString(); strings.Contains(got, "_parentcontactid_value") {
		t.Fatalf("lookup column leaked into server filter: %q", got)
	}
}

func TestCompose_NonNumericValueOnNumberColumnDropped(t *testing.T) {
	st := state.NewStore()
	st.SetFilter(state.RootScope(), "estimatedvalue", state.Filter{Op: state.OpContains, Value: "abc"})

	spec, err := demoComposer(st).Compose(0, "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := spec.FilterString(); strings.Contains(got, "estimatedvalue") {
		t.Fatalf("unparseable numeric filter should be dropped, got %q", got)
	}
}

func TestCompose_BaseFilterAndRootPlaceholder(t *testing.T) {
	spec, err := demoComposer(state.NewStore()).Compose(0, "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	got := spec.FilterString()
	if !strings.Contains(got, "ishost eq false") {
		t.Fatalf("static base condition missing: %q", got)
	}
	if !strings.Contains(got, "_originalopportunity_value eq '"+rootID+"'") {
		t.Fatalf("root placeholder not substituted: %q", got)
	}
}

func TestCompose_ChildLevelAddsParentClause(t *testing.T) {
	parent := "{AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE}"
	spec, err := demoComposer(state.NewStore()).Compose(1, parent)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	got := spec.FilterString()
	if !strings.Contains(got, "_opportunityid_value eq 'AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE'") {
		t.Fatalf("parent clause missing or unsanitized: %q", got)
	}
}

func TestCompose_SearchReplacesColumnFiltersButKeepsBase(t *testing.T) {
	st := state.NewStore()
	st.SetFilter(state.RootScope(), "estimatedvalue", state.Filter{Op: state.OpGTE, Value: "50000"})
	c := demoComposer(st)
	c.Search = "harbour"

	spec, err := c.Compose(0, "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	got := spec.FilterString()
	if strings.Contains(got, "estimatedvalue") {
		t.Fatalf("column filter should be replaced by search: %q", got)
	}
	if !strings.Contains(got, "contains(name,'harbour')") {
		t.Fatalf("search clause missing: %q", got)
	}
	if !strings.Contains(got, "ishost eq false") {
		t.Fatalf("base filter must stay layered under search: %q", got)
	}
}

func TestCompose_TextOperatorsAndQuoteEscaping(t *testing.T) {
	st := state.NewStore()
	st.SetFilter(state.RootScope(), "name", state.Filter{Op: state.OpStarts, Value: "O'Brien"})

	spec, err := demoComposer(st).Compose(0, "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := spec.FilterString(); !strings.Contains(got, "startswith(name,'O''Brien')") {
		t.Fatalf("quote doubling missing: %q", got)
	}
}

func TestCompose_OrderAndFieldList(t *testing.T) {
	st := state.NewStore()
	st.ToggleSort(state.RootScope(), "name", false)
	st.ToggleSort(state.RootScope(), "estimatedvalue", true)
	st.ToggleSort(state.RootScope(), "estimatedvalue", true)

	spec, err := demoComposer(st).Compose(0, "")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := spec.OrderString(); got != "name asc,estimatedvalue desc" {
		t.Fatalf("order: got %q", got)
	}
	want := map[string]bool{"name": true, "opportunityid": true}
	seen := map[string]bool{}
	for _, f := range spec.Fields {
		if seen[f] {
			t.Fatalf("duplicate field %q in %v", f, spec.Fields)
		}
		seen[f] = true
	}
	for f := range want {
		if !seen[f] {
			t.Fatalf("field list %v missing %q", spec.Fields, f)
		}
	}
}

func TestCompose_UnknownLevel(t *testing.T) {
	_, err := demoComposer(state.NewStore()).Compose(9, "")
	if err == nil {
		t.Fatalf("expected unknown level error")
	}
	if _, ok := err.(*UnknownLevelError); !ok {
		t.Fatalf("got %T, want *UnknownLevelError", err)
	}
}

func TestCompose_BooleanTokenForms(t *testing.T) {
	cases := []struct {
		value string
		want  string
		drop  bool
	}{
		{"yes", "ishost eq true", false},
		{"0", "ishost eq false", false},
		{"2", "ishost eq true", false},
		{"maybe", "", true},
	}
	for _, tc := range cases {
		st := state.NewStore()
		st.SetFilter(state.RootScope(), "ishost", state.Filter{Op: state.OpEquals, Value: tc.value})
		spec, err := demoComposer(st).Compose(0, "")
		if err != nil {
			t.Fatalf("compose(%q): %v", tc.value, err)
		}
		got := spec.FilterString()
		// The static base also mentions ishost; count the filter clause by
		// full text.
		if tc.drop {
			if strings.Count(got, "ishost") != 1 {
				t.Fatalf("value %q should drop the clause, got %q", tc.value, got)
			}
			continue
		}
		if !strings.Contains(got, tc.want) || strings.Count(got, "ishost") != 2 {
			t.Fatalf("value %q: got %q, want clause %q", tc.value, got, tc.want)
		}
	}
}
