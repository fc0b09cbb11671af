package schema

import (
	"strings"
	"testing"
)

func TestDemoHierarchy_Validates(t *testing.T) {
	h := Demo()
	if err := h.Validate(); err != nil {
		t.Fatalf("demo hierarchy invalid: %v", err)
	}
	if got := len(h.Levels); got != 4 {
		t.Fatalf("expected 4 levels, got %d", got)
	}
	leaf := h.Levels[len(h.Levels)-1]
	if leaf.Child != -1 {
		t.Fatalf("last level must be a leaf, child=%d", leaf.Child)
	}
}

func TestValidate_CatchesBrokenWiring(t *testing.T) {
	valid := func() Hierarchy {
		return Hierarchy{Levels: []Level{
			{
				RecordSet: "opportunities",
				Key:       "opportunityid",
				Columns:   []Column{{Key: "name", Kind: KindText}},
				Child:     1,
			},
			{
				RecordSet:   "quotes",
				Key:         "quoteid",
				ParentField: "_opportunityid_value",
				Columns:     []Column{{Key: "name", Kind: KindText}},
				Child:       -1,
			},
		}}
	}

	cases := []struct {
		name   string
		mutate func(*Hierarchy)
		want   string
	}{
		{"missing parent field", func(h *Hierarchy) { h.Levels[1].ParentField = "" }, "parent field"},
		{"duplicate column", func(h *Hierarchy) {
			h.Levels[0].Columns = append(h.Levels[0].Columns, Column{Key: "name", Kind: KindText})
		}, "duplicate column"},
		{"lookup without binding", func(h *Hierarchy) {
			h.Levels[0].Columns[0].Kind = KindLookup
		}, "lookup"},
		{"dangling child index", func(h *Hierarchy) { h.Levels[1].Child = 5 }, "child"},
		{"no columns", func(h *Hierarchy) { h.Levels[0].Columns = nil }, "no columns"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := valid()
			tc.mutate(&h)
			err := h.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestFieldList_DeduplicatesKeyAndParent(t *testing.T) {
	l := Level{
		RecordSet:   "quotes",
		Key:         "quoteid",
		ParentField: "_opportunityid_value",
		Columns: []Column{
			{Key: "name"},
			{Key: "quoteid"}, // also the primary key
		},
	}
	got := l.FieldList()
	want := []string{"name", "quoteid", "_opportunityid_value"}
	if len(got) != len(want) {
		t.Fatalf("field list %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field list %v, want %v", got, want)
		}
	}
}

func TestParseValueKind(t *testing.T) {
	for in, want := range map[string]ValueKind{
		"":        KindText,
		"text":    KindText,
		"string":  KindText,
		"number":  KindNumber,
		"bool":    KindBoolean,
		"boolean": KindBoolean,
		"choice":  KindChoice,
		"lookup":  KindLookup,
	} {
		got, err := ParseValueKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseValueKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseValueKind("blob"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
