package state

import (
	"path/filepath"
	"testing"
)

func TestRestore_LegacyFlatFilterMap(t *testing.T) {
	raw := []byte(`{"filters":{"name":{"op":"contains","value":"crane"}}}`)
	st, err := Restore(raw)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	f, ok := st.Filter(RootScope(), "name")
	if !ok || f.Op != OpContains || f.Value != "crane" {
		t.Fatalf("flat shape not migrated to root scope: %v %v", f, ok)
	}
}

func TestRestore_LegacyPerLevelFilterMap(t *testing.T) {
	raw := []byte(`{"filters":{"1":{"quantity":{"op":"gte","value":"2"}}}}`)
	st, err := Restore(raw)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	f, ok := st.Filter(Scope{Level: 1, Context: RootContext}, "quantity")
	if !ok || f.Op != OpGTE || f.Value != "2" {
		t.Fatalf("per-level shape not migrated: %v %v", f, ok)
	}
}

func TestRestore_CanonicalShapeRoundTrips(t *testing.T) {
	st := NewStore()
	sc := ScopeFor(1, "abc-123")
	st.SetFilter(sc, "name", Filter{Op: OpStarts, Value: "Har"})
	st.ToggleSort(sc, "name", false)
	st.SetWidth(sc, "name", 180)

	path := filepath.Join(t.TempDir(), "state.json")
	if err := Save(path, st); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f, ok := got.Filter(sc, "name")
	if !ok || f.Op != OpStarts || f.Value != "Har" {
		t.Fatalf("filter lost in round trip: %v %v", f, ok)
	}
	if sorts := got.Sorts(sc); len(sorts) != 1 || sorts[0] != (Sort{Key: "name", Dir: Asc}) {
		t.Fatalf("sorts lost: %v", sorts)
	}
	if px, ok := got.Width(sc, "name"); !ok || px != 180 {
		t.Fatalf("width lost: %d %v", px, ok)
	}
}

func TestLoad_MissingFileYieldsEmptyStore(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cols := st.FilterColumns(RootScope()); len(cols) != 0 {
		t.Fatalf("expected empty store, got filters on %v", cols)
	}
}
