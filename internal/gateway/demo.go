package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DemoRootID is the root record identity the demo data hangs off.
const DemoRootID = "00000000-0000-0000-0000-0000000000aa"

var demoDDL = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		contactid TEXT PRIMARY KEY,
		fullname TEXT,
		emailaddress1 TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS opportunities (
		opportunityid TEXT PRIMARY KEY,
		name TEXT,
		_parentcontactid_value TEXT,
		estimatedvalue REAL,
		ishost INTEGER DEFAULT 0,
		description TEXT,
		_originalopportunity_value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS quotes (
		quoteid TEXT PRIMARY KEY,
		name TEXT,
		quotenumber TEXT,
		statuscode INTEGER,
		_opportunityid_value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS quotedetails (
		quotedetailid TEXT PRIMARY KEY,
		productname TEXT,
		quantity REAL,
		extendedamount REAL,
		_quoteid_value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS characteristics (
		characteristicid TEXT PRIMARY KEY,
		featurename TEXT,
		featuretype INTEGER,
		featuretype2 INTEGER,
		_referencingquote_value TEXT,
		_quotedetail_value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS nestgrid_options (
		recordset TEXT,
		field TEXT,
		value TEXT,
		label TEXT,
		pos INTEGER
	)`,
}

type demoRow struct {
	table string
	cols  []string
	vals  []any
}

func demoRows() []demoRow {
	guid := func(n int) string { return fmt.Sprintf("00000000-0000-0000-0000-%012d", n) }
	rows := []demoRow{
		{"contacts", []string{"contactid", "fullname", "emailaddress1"},
			[]any{guid(901), "Ada Deane", "ada@example.test"}},
		{"contacts", []string{"contactid", "fullname", "emailaddress1"},
			[]any{guid(902), "Marcus Holt", "marcus@example.test"}},
		{"contacts", []string{"contactid", "fullname", "emailaddress1"},
			[]any{guid(903), "Priya Raman", "priya@example.test"}},
	}
	opp := func(n int, name string, contact string, value float64, desc string) demoRow {
		return demoRow{"opportunities",
			[]string{"opportunityid", "name", "_parentcontactid_value", "estimatedvalue", "ishost", "description", "_originalopportunity_value"},
			[]any{guid(n), name, contact, value, 0, desc, DemoRootID}}
	}
	rows = append(rows,
		opp(101, "Harbour expansion", guid(901), 84000, "Dockside retrofit, phase two"),
		opp(102, "Northside rollout", guid(902), 52500, "Regional deployment"),
		opp(103, "Archive migration", guid(903), 12750, "Cold storage move"),
		opp(104, "Fleet telemetry pilot", guid(901), 97000, ""),
	)
	quote := func(n int, name, number string, status int, opp int) demoRow {
		return demoRow{"quotes",
			[]string{"quoteid", "name", "quotenumber", "statuscode", "_opportunityid_value"},
			[]any{guid(n), name, number, status, guid(opp)}}
	}
	rows = append(rows,
		quote(201, "Harbour expansion - draft", "QUO-1001", 1, 101),
		quote(202, "Harbour expansion - revised", "QUO-1002", 2, 101),
		quote(203, "Northside rollout quote", "QUO-1003", 1, 102),
		quote(204, "Telemetry pilot quote", "QUO-1004", 3, 104),
	)
	line := func(n int, product string, qty, amount float64, q int) demoRow {
		return demoRow{"quotedetails",
			[]string{"quotedetailid", "productname", "quantity", "extendedamount", "_quoteid_value"},
			[]any{guid(n), product, qty, amount, guid(q)}}
	}
	rows = append(rows,
		line(301, "Crane assembly", 2, 41200, 201),
		line(302, "Control cabin", 1, 18750, 201),
		line(303, "Crane assembly", 2, 39800, 202),
		line(304, "Sensor bundle", 12, 9600, 203),
		line(305, "Uplink module", 6, 14400, 204),
	)
	char := func(n int, name string, t, t2 int, refQuote, detail int) demoRow {
		return demoRow{"characteristics",
			[]string{"characteristicid", "featurename", "featuretype", "featuretype2", "_referencingquote_value", "_quotedetail_value"},
			[]any{guid(n), name, t, t2, guid(refQuote), guid(detail)}}
	}
	rows = append(rows,
		char(401, "Load rating", 1, 2, 201, 301),
		char(402, "Weatherproofing", 2, 2, 202, 301),
		char(403, "Operator seat", 3, 1, 201, 302),
		char(404, "Sampling rate", 1, 3, 204, 305),
	)
	opt := func(set, field, value, label string, pos int) demoRow {
		return demoRow{"nestgrid_options",
			[]string{"recordset", "field", "value", "label", "pos"},
			[]any{set, field, value, label, pos}}
	}
	rows = append(rows,
		opt("quotes", "statuscode", "1", "Draft", 1),
		opt("quotes", "statuscode", "2", "Active", 2),
		opt("quotes", "statuscode", "3", "Won", 3),
		opt("characteristics", "featuretype", "1", "Numeric", 1),
		opt("characteristics", "featuretype", "2", "Physical", 2),
		opt("characteristics", "featuretype", "3", "Comfort", 3),
		opt("characteristics", "featuretype2", "1", "Standard", 1),
		opt("characteristics", "featuretype2", "2", "Premium", 2),
		opt("characteristics", "featuretype2", "3", "Custom", 3),
	)
	return rows
}

// SeedDemo creates the demo schema and loads the sample chain. Safe to call
// on an already-seeded database.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	for _, ddl := range demoDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("seed demo: %w", err)
		}
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM opportunities").Scan(&n); err == nil && n > 0 {
		return nil
	}
	for _, r := range demoRows() {
		marks := make([]string, len(r.cols))
		for i := range marks {
			marks[i] = "?"
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			r.table, strings.Join(r.cols, ", "), strings.Join(marks, ", "))
		if _, err := db.ExecContext(ctx, q, r.vals...); err != nil {
			return fmt.Errorf("seed demo %s: %w", r.table, err)
		}
	}
	return nil
}
