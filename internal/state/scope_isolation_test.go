package state

import "testing"

func TestScopedState_IsolatedAcrossContextsAndLevels(t *testing.T) {
	st := NewStore()
	a := ScopeFor(1, "abc-123")
	b := ScopeFor(1, "xyz-789")
	c := ScopeFor(2, "abc-123")

	st.SetFilter(a, "name", Filter{Op: OpContains, Value: "crane"})
	st.ToggleSort(a, "name", false)
	st.SetWidth(a, "name", 220)

	if _, ok := st.Filter(b, "name"); ok {
		t.Fatalf("filter leaked into sibling context %v", b)
	}
	if _, ok := st.Filter(c, "name"); ok {
		t.Fatalf("filter leaked across levels into %v", c)
	}
	if got := st.Sorts(b); len(got) != 0 {
		t.Fatalf("sort leaked into sibling context: %v", got)
	}
	if _, ok := st.Width(b, "name"); ok {
		t.Fatalf("width leaked into sibling context")
	}
	if _, ok := st.Width(c, "name"); ok {
		t.Fatalf("width leaked across levels")
	}

	// Clearing one bucket leaves the others alone.
	st.SetFilter(b, "name", Filter{Op: OpEquals, Value: "cabin"})
	st.ClearFilter(a, "name")
	if f, ok := st.Filter(b, "name"); !ok || f.Value != "cabin" {
		t.Fatalf("sibling filter disturbed by clear: %v %v", f, ok)
	}
}

func TestScopedState_WidthSiblingParents(t *testing.T) {
	st := NewStore()
	under1 := ScopeFor(1, "abc-123")
	under2 := ScopeFor(1, "xyz-789")

	st.SetWidth(under1, "quantity", 180)
	if _, ok := st.Width(under2, "quantity"); ok {
		t.Fatalf("same column under sibling parent must not share width")
	}
	if px, ok := st.Width(under1, "quantity"); !ok || px != 180 {
		t.Fatalf("width lost: got %d %v, want 180 true", px, ok)
	}
}
