package gateway

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"nestgrid/internal/query"
	"nestgrid/internal/schema"
)

func demoSQL(t *testing.T) (*SQL, *sql.DB) {
	t.Helper()
	db, driver, err := OpenSQL(SQLConfig{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := SeedDemo(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewSQL(db, driver, schema.Demo()), db
}

func TestSQLQuery_FilterOrderAndDecoration(t *testing.T) {
	g, _ := demoSQL(t)
	lvl, _ := schema.Demo().Level(0)
	spec := query.Spec{
		RecordSet: "opportunities",
		Fields:    lvl.FieldList(),
		Clauses:   []query.Clause{query.NumberClause("estimatedvalue", query.CmpGe, 50000)},
		Order:     []query.OrderBy{{Field: "estimatedvalue", Dir: "desc"}},
	}
	recs, err := g.Query(context.Background(), spec)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3 over 50000", len(recs))
	}
	prev := 1e18
	for _, r := range recs {
		n := mustNumber(t, r.Raw("estimatedvalue"))
		if n > prev {
			t.Fatalf("order not descending: %v after %v", n, prev)
		}
		prev = n
		if got := r.Display("ishost"); got != "No" {
			t.Fatalf("boolean display companion: got %q, want No", got)
		}
		if r.Display("_parentcontactid_value") == r.Raw("_parentcontactid_value") {
			t.Fatalf("lookup display not decorated: %q", r.Display("_parentcontactid_value"))
		}
	}
}

func mustNumber(t *testing.T, s string) float64 {
	t.Helper()
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("not numeric: %q", s)
	}
	return n
}

func TestSQLQuery_ContainsEscapesLikeMeta(t *testing.T) {
	g, db := demoSQL(t)
	if _, err := db.Exec(`INSERT INTO opportunities (opportunityid, name, ishost, _originalopportunity_value) VALUES ('odd-1', '100% legit_name', 0, ?)`, DemoRootID); err != nil {
		t.Fatalf("insert: %v", err)
	}
	spec := query.Spec{
		RecordSet: "opportunities",
		Fields:    []string{"opportunityid", "name"},
		Clauses:   []query.Clause{query.TextClause("name", query.CmpContains, "100% legit")},
	}
	recs, err := g.Query(context.Background(), spec)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 1 || recs[0].Key("opportunityid") != "odd-1" {
		t.Fatalf("literal %% match: got %+v", recs)
	}
}

func TestSQLQuery_RejectsHostileIdentifier(t *testing.T) {
	g, _ := demoSQL(t)
	spec := query.Spec{
		RecordSet: "opportunities; DROP TABLE opportunities",
		Fields:    []string{"name"},
	}
	if _, err := g.Query(context.Background(), spec); err == nil {
		t.Fatalf("expected identifier rejection")
	}
}

func TestSQLPatch_PlainAndBinding(t *testing.T) {
	g, db := demoSQL(t)
	key := "00000000-0000-0000-0000-000000000101"

	err := g.Patch(context.Background(), "opportunities", key, map[string]any{"name": "Harbour expansion v2"})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	var name string
	if err := db.QueryRow("SELECT name FROM opportunities WHERE opportunityid = ?", key).Scan(&name); err != nil {
		t.Fatalf("readback: %v", err)
	}
	if name != "Harbour expansion v2" {
		t.Fatalf("name: got %q", name)
	}

	// Lookup binding writes the target id into the owning column.
	target := "00000000-0000-0000-0000-000000000903"
	err = g.Patch(context.Background(), "opportunities", key, map[string]any{
		"_parentcontactid_value": Binding{
			Relationship: "parentcontactid",
			RecordSet:    "contacts",
			Key:          target,
			Field:        "_parentcontactid_value",
		},
	})
	if err != nil {
		t.Fatalf("binding patch: %v", err)
	}
	var got string
	if err := db.QueryRow("SELECT _parentcontactid_value FROM opportunities WHERE opportunityid = ?", key).Scan(&got); err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got != target {
		t.Fatalf("lookup column: got %q, want %q", got, target)
	}

	if err := g.Patch(context.Background(), "opportunities", "no-such-key", map[string]any{"name": "x"}); err == nil {
		t.Fatalf("patching a missing record should fail")
	}
}

func TestSQLSearchByText(t *testing.T) {
	g, _ := demoSQL(t)
	lk := schema.Lookup{
		RecordSet:     "contacts",
		KeyField:      "contactid",
		NameField:     "fullname",
		DisplayFields: []string{"fullname", "emailaddress1"},
	}
	got, err := g.SearchByText(context.Background(), lk, "ada")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Display != "Ada Deane - ada@example.test" {
		t.Fatalf("candidates: %+v", got)
	}
	if got, err := g.SearchByText(context.Background(), lk, "  "); err != nil || got != nil {
		t.Fatalf("blank search: %v %v", got, err)
	}
}

func TestSQLResolveEnumeration(t *testing.T) {
	g, _ := demoSQL(t)
	opts, err := g.ResolveEnumeration(context.Background(), "quotes", "statuscode", schema.KindChoice)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(opts) != 3 || opts[0] != (Option{Value: "1", Label: "Draft"}) {
		t.Fatalf("options: %+v", opts)
	}
	// Unconfigured boolean falls back to Yes/No.
	opts, err = g.ResolveEnumeration(context.Background(), "opportunities", "ishost", schema.KindBoolean)
	if err != nil || len(opts) != 2 || opts[0].Label != "Yes" {
		t.Fatalf("boolean fallback: %+v, %v", opts, err)
	}
}
