package state

import "testing"

func TestToggleSort_SingleReplacesAndFlips(t *testing.T) {
	st := NewStore()
	sc := RootScope()

	st.ToggleSort(sc, "name", false)
	if got := st.Sorts(sc); len(got) != 1 || got[0] != (Sort{Key: "name", Dir: Asc}) {
		t.Fatalf("first click: got %v, want [name asc]", got)
	}
	st.ToggleSort(sc, "name", false)
	if got := st.Sorts(sc); len(got) != 1 || got[0] != (Sort{Key: "name", Dir: Desc}) {
		t.Fatalf("second click: got %v, want [name desc]", got)
	}

	// Plain click on another column replaces the whole spec.
	st.ToggleSort(sc, "estimatedvalue", false)
	got := st.Sorts(sc)
	if len(got) != 1 || got[0].Key != "estimatedvalue" || got[0].Dir != Asc {
		t.Fatalf("replace: got %v, want [estimatedvalue asc]", got)
	}
}

func TestToggleSort_AdditiveCycleRemovesOnThirdClick(t *testing.T) {
	st := NewStore()
	sc := RootScope()

	st.ToggleSort(sc, "name", false)
	st.ToggleSort(sc, "estimatedvalue", true) // append asc
	st.ToggleSort(sc, "estimatedvalue", true) // flip desc
	got := st.Sorts(sc)
	if len(got) != 2 || got[0].Key != "name" || got[1] != (Sort{Key: "estimatedvalue", Dir: Desc}) {
		t.Fatalf("additive flip: got %v", got)
	}

	st.ToggleSort(sc, "estimatedvalue", true) // remove
	got = st.Sorts(sc)
	if len(got) != 1 || got[0].Key != "name" {
		t.Fatalf("additive remove: got %v, want [name asc] untouched", got)
	}
}

func TestToggleSort_AdditivePreservesRelativeOrder(t *testing.T) {
	st := NewStore()
	sc := ScopeFor(1, "abc-123")

	st.ToggleSort(sc, "a", true)
	st.ToggleSort(sc, "b", true)
	st.ToggleSort(sc, "c", true)
	st.ToggleSort(sc, "b", true) // flip b in place
	got := st.Sorts(sc)
	want := []Sort{{Key: "a", Dir: Asc}, {Key: "b", Dir: Desc}, {Key: "c", Dir: Asc}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
