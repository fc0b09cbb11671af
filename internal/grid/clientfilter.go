package grid

import (
	"strings"

	"nestgrid/internal/gateway"
	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

// Matches reports whether a record passes one active filter on one column.
// This is the client-side pass: it runs on every active filter, including
// ones already pushed to the server, so the visible set is correct even when
// a server clause was dropped during composition.
func Matches(col schema.Column, rec gateway.Record, f state.Filter) bool {
	switch {
	case col.IsLookup():
		return matchLookup(col, rec, f)
	case col.Kind == schema.KindChoice || col.Kind == schema.KindBoolean:
		return matchCoded(col, rec, f)
	case col.Kind == schema.KindNumber:
		return matchNumber(col, rec, f)
	}
	return matchText(rec.Display(col.Key), f.Op, f.Value)
}

// matchLookup compares identities when the filter carries a resolved target,
// and falls back to label matching otherwise.
func matchLookup(col schema.Column, rec gateway.Record, f state.Filter) bool {
	if f.LookupID != "" {
		return strings.EqualFold(rec.Key(col.Key), state.SanitizeKey(f.LookupID))
	}
	return matchText(rec.Display(col.Key), f.Op, f.Value)
}

// matchCoded: equals compares the raw underlying value; everything else
// compares the displayed label as a substring.
func matchCoded(col schema.Column, rec gateway.Record, f state.Filter) bool {
	if f.Op == state.OpEquals {
		return strings.EqualFold(rec.Raw(col.Key), strings.TrimSpace(f.Value))
	}
	return containsFold(rec.Display(col.Key), f.Value)
}

func matchNumber(col schema.Column, rec gateway.Record, f state.Filter) bool {
	cell, cellOK := parseNumber(rec.Raw(col.Key))
	want, wantOK := parseNumber(f.Value)
	if !cellOK || !wantOK {
		return matchText(rec.Display(col.Key), f.Op, f.Value)
	}
	switch f.Op {
	case state.OpEquals:
		return cell == want
	case state.OpGT:
		return cell > want
	case state.OpLT:
		return cell < want
	case state.OpGTE:
		return cell >= want
	case state.OpLTE:
		return cell <= want
	}
	// contains/starts/ends make no numeric sense; treat as equality.
	return cell == want
}

func matchText(cell string, op state.Op, value string) bool {
	cell = strings.ToLower(strings.TrimSpace(cell))
	value = strings.ToLower(strings.TrimSpace(value))
	switch op {
	case state.OpEquals:
		return cell == value
	case state.OpStarts:
		return strings.HasPrefix(cell, value)
	case state.OpEnds:
		return strings.HasSuffix(cell, value)
	}
	return strings.Contains(cell, value)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}
