package grid

import (
	"testing"

	"nestgrid/internal/gateway"
	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

func TestMatches_LookupIdentityBeatsLabel(t *testing.T) {
	col := schema.Column{Key: "_parentcontactid_value", Kind: schema.KindLookup}
	rec := gateway.Record{
		"_parentcontactid_value":         "{ABC-1}",
		"_parentcontactid_value@display": "Ada Deane",
	}

	// Resolved identity: exact match, case-insensitive, brace-stripped.
	if !Matches(col, rec, state.Filter{Op: state.OpContains, Value: "whatever", LookupID: "abc-1"}) {
		t.Fatalf("identity match should pass")
	}
	if Matches(col, rec, state.Filter{Op: state.OpContains, Value: "Ada", LookupID: "xyz-9"}) {
		t.Fatalf("identity mismatch must hide the row even when the label matches")
	}
	// No identity: label matching with text semantics.
	if !Matches(col, rec, state.Filter{Op: state.OpStarts, Value: "ada"}) {
		t.Fatalf("label prefix should pass")
	}
	if Matches(col, rec, state.Filter{Op: state.OpEquals, Value: "Ada"}) {
		t.Fatalf("label equals is exact")
	}
}

func TestMatches_CodedColumns(t *testing.T) {
	col := schema.Column{Key: "statuscode", Kind: schema.KindChoice}
	rec := gateway.Record{"statuscode": 2.0, "statuscode@display": "Active"}

	if !Matches(col, rec, state.Filter{Op: state.OpEquals, Value: "2"}) {
		t.Fatalf("equals compares the raw value")
	}
	if Matches(col, rec, state.Filter{Op: state.OpEquals, Value: "Active"}) {
		t.Fatalf("equals must not compare the label")
	}
	if !Matches(col, rec, state.Filter{Op: state.OpContains, Value: "act"}) {
		t.Fatalf("other operators compare the label substring")
	}
}

func TestMatches_NumericWithSeparatorsAndFallback(t *testing.T) {
	col := schema.Column{Key: "estimatedvalue", Kind: schema.KindNumber}
	rec := gateway.Record{"estimatedvalue": "1,250.50", "estimatedvalue@display": "$1,250.50"}

	if !Matches(col, rec, state.Filter{Op: state.OpGTE, Value: "1000"}) {
		t.Fatalf("separator-stripped numeric compare failed")
	}
	if Matches(col, rec, state.Filter{Op: state.OpLT, Value: "1000"}) {
		t.Fatalf("lt should fail for 1250.50")
	}
	// Unparseable filter value falls back to text comparison on the display.
	if !Matches(col, rec, state.Filter{Op: state.OpContains, Value: "250."}) {
		t.Fatalf("text fallback should substring the display value")
	}
}

func TestMatches_TextOperators(t *testing.T) {
	col := schema.Column{Key: "name", Kind: schema.KindText}
	rec := gateway.Record{"name": "Harbour Expansion"}

	cases := []struct {
		op    state.Op
		value string
		want  bool
	}{
		{state.OpContains, "our exp", true},
		{state.OpEquals, "harbour expansion", true},
		{state.OpEquals, "harbour", false},
		{state.OpStarts, "HAR", true},
		{state.OpEnds, "sion", true},
		{state.OpEnds, "harbour", false},
	}
	for _, tc := range cases {
		if got := Matches(col, rec, state.Filter{Op: tc.op, Value: tc.value}); got != tc.want {
			t.Fatalf("%s %q: got %v, want %v", tc.op, tc.value, got, tc.want)
		}
	}
}
