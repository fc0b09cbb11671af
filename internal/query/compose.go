package query

import (
	"strconv"
	"strings"

	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

// Composer builds the server query for a (level, context) pair from the
// hierarchy, the scoped state store, and the ambient root record. It is a
// pure function of that state: composing never mutates anything.
type Composer struct {
	Hierarchy schema.Hierarchy
	State     *state.Store

	// RootRecordID parameterizes dynamic base filters ($root).
	RootRecordID string
	// Search is the global text box. When set it fully replaces the level-0
	// column-filter clauses for the pass (still layered on the base filter).
	Search string
}

// Compose returns the normalized query for one level instance. parentID is
// the raw key of the expanded parent row; empty at the root.
func (c Composer) Compose(level int, parentID string) (Spec, error) {
	lvl, ok := c.Hierarchy.Level(level)
	if !ok {
		return Spec{}, &UnknownLevelError{Level: level}
	}

	sc := state.ScopeFor(level, parentID)
	spec := Spec{
		RecordSet: lvl.RecordSet,
		Fields:    lvl.FieldList(),
	}

	if level > 0 {
		spec.Clauses = append(spec.Clauses, KeyClause(lvl.ParentField, state.SanitizeKey(parentID)))
	}
	for _, bc := range lvl.Base {
		if cl, ok := c.baseClause(bc, parentID); ok {
			spec.Clauses = append(spec.Clauses, cl)
		}
	}

	if level == 0 && strings.TrimSpace(c.Search) != "" {
		// Ad-hoc search takes precedence over the column-derived filter.
		field := lvl.SearchField
		if field == "" {
			field = "name"
		}
		spec.Clauses = append(spec.Clauses, TextClause(field, CmpContains, strings.TrimSpace(c.Search)))
	} else {
		for _, col := range c.State.FilterColumns(sc) {
			f, _ := c.State.Filter(sc, col)
			meta, ok := lvl.Column(col)
			if !ok {
				continue
			}
			if cl, ok := serverClause(meta, f); ok {
				spec.Clauses = append(spec.Clauses, cl)
			}
		}
	}

	for _, s := range c.State.Sorts(sc) {
		spec.Order = append(spec.Order, OrderBy{Field: s.Key, Dir: s.Dir})
	}
	return spec, nil
}

// UnknownLevelError reports a compose request outside the hierarchy.
type UnknownLevelError struct{ Level int }

func (e *UnknownLevelError) Error() string {
	return "no such hierarchy level " + strconv.Itoa(e.Level)
}

func (c Composer) baseClause(bc schema.BaseCondition, parentID string) (Clause, bool) {
	val := bc.Value
	switch val {
	case schema.PlaceholderRoot:
		val = state.SanitizeKey(c.RootRecordID)
	case schema.PlaceholderParent:
		val = state.SanitizeKey(parentID)
	}
	op := CompareOp(bc.Op)
	if op == "" {
		op = CmpEq
	}
	if op == CmpContains {
		return TextClause(bc.Field, CmpContains, val), true
	}
	if val == "true" || val == "false" {
		return BoolClause(bc.Field, val == "true"), true
	}
	if n, err := strconv.ParseFloat(val, 64); err == nil {
		return NumberClause(bc.Field, op, n), true
	}
	kc := KeyClause(bc.Field, val)
	kc.Op = op
	return kc, true
}

// serverClause converts one column filter into a server clause. Lookup
// columns are never server-eligible (identity-valued fields are unsafe as
// free-text comparisons); value coercion failures drop the clause silently so
// the query still runs.
func serverClause(col schema.Column, f state.Filter) (Clause, bool) {
	if col.IsLookup() {
		return Clause{}, false
	}
	val := strings.TrimSpace(f.Value)
	if val == "" {
		return Clause{}, false
	}

	switch col.Kind {
	case schema.KindNumber:
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return Clause{}, false
		}
		return NumberClause(col.Key, numericOp(f.Op), n), true

	case schema.KindBoolean:
		b, ok := parseBoolToken(val)
		if !ok {
			// Numeric forms: zero is false, anything else true.
			n, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return Clause{}, false
			}
			b = n != 0
		}
		return BoolClause(col.Key, b), true

	case schema.KindChoice:
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			return NumberClause(col.Key, CmpEq, n), true
		}
		return TextClause(col.Key, CmpEq, val), true

	default:
		switch f.Op {
		case state.OpEquals:
			return TextClause(col.Key, CmpEq, val), true
		case state.OpStarts:
			return TextClause(col.Key, CmpStartsWith, val), true
		case state.OpEnds:
			return TextClause(col.Key, CmpEndsWith, val), true
		default:
			return TextClause(col.Key, CmpContains, val), true
		}
	}
}

func numericOp(op state.Op) CompareOp {
	switch op {
	case state.OpGTE:
		return CmpGe
	case state.OpLTE:
		return CmpLe
	case state.OpGT:
		return CmpGt
	case state.OpLT:
		return CmpLt
	default:
		return CmpEq
	}
}

func parseBoolToken(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}
