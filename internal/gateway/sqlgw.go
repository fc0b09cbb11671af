package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"nestgrid/internal/query"
	"nestgrid/internal/schema"
)

// SQL implements Gateway over a database/sql connection: record sets are
// tables, composed clauses compile to a parameterized WHERE, and enumerations
// live in the nestgrid_options table. This is the demo/local backend and the
// fixture backend for engine tests.
type SQL struct {
	db       *sql.DB
	hier     schema.Hierarchy
	numbered bool
	enums    enumCache
}

// NewSQL wraps an open database. driver is the normalized name from OpenSQL;
// postgres switches to numbered placeholders. The hierarchy is used to locate
// primary keys for patches and to decorate choice/lookup fields with display
// companions.
func NewSQL(db *sql.DB, driver string, hier schema.Hierarchy) *SQL {
	return &SQL{db: db, hier: hier, numbered: driver == "pgx"}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// Query implements Gateway.
func (g *SQL) Query(ctx context.Context, spec query.Spec) ([]Record, error) {
	if err := checkIdent(spec.RecordSet); err != nil {
		return nil, err
	}
	for _, f := range spec.Fields {
		if err := checkIdent(f); err != nil {
			return nil, err
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(spec.Fields, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(spec.RecordSet)

	var args []any
	if len(spec.Clauses) > 0 {
		parts := make([]string, 0, len(spec.Clauses))
		for _, c := range spec.Clauses {
			frag, arg, err := compileClause(c)
			if err != nil {
				return nil, err
			}
			parts = append(parts, frag)
			args = append(args, arg)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}
	if len(spec.Order) > 0 {
		parts := make([]string, 0, len(spec.Order))
		for _, o := range spec.Order {
			if err := checkIdent(o.Field); err != nil {
				return nil, err
			}
			dir := "ASC"
			if o.Dir == "desc" {
				dir = "DESC"
			}
			parts = append(parts, o.Field+" "+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	rows, err := g.db.QueryContext(ctx, g.rebind(sb.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.RecordSet, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows, spec.Fields)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.RecordSet, err)
	}
	if err := g.decorate(ctx, spec.RecordSet, records); err != nil {
		return nil, err
	}
	return records, nil
}

func compileClause(c query.Clause) (string, any, error) {
	if err := checkIdent(c.Field); err != nil {
		return "", nil, err
	}
	var arg any
	switch {
	case c.Number != nil:
		arg = *c.Number
	case c.Bool != nil:
		arg = *c.Bool
	case c.Text != nil:
		arg = *c.Text
	case c.Raw != nil:
		arg = *c.Raw
	default:
		return "", nil, fmt.Errorf("clause on %s has no value", c.Field)
	}
	switch c.Op {
	case query.CmpEq:
		return c.Field + " = ?", arg, nil
	case query.CmpNe:
		return c.Field + " <> ?", arg, nil
	case query.CmpGt:
		return c.Field + " > ?", arg, nil
	case query.CmpLt:
		return c.Field + " < ?", arg, nil
	case query.CmpGe:
		return c.Field + " >= ?", arg, nil
	case query.CmpLe:
		return c.Field + " <= ?", arg, nil
	case query.CmpContains:
		return c.Field + ` LIKE ? ESCAPE '\'`, "%" + escapeLike(fmt.Sprint(arg)) + "%", nil
	case query.CmpStartsWith:
		return c.Field + ` LIKE ? ESCAPE '\'`, escapeLike(fmt.Sprint(arg)) + "%", nil
	case query.CmpEndsWith:
		return c.Field + ` LIKE ? ESCAPE '\'`, "%" + escapeLike(fmt.Sprint(arg)), nil
	}
	return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// rebind rewrites ? placeholders to $n for postgres connections.
func (g *SQL) rebind(q string) string {
	if !g.numbered {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func scanRecords(rows *sql.Rows, fields []string) ([]Record, error) {
	var out []Record
	for rows.Next() {
		vals := make([]any, len(fields))
		ptrs := make([]any, len(fields))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(Record, len(fields))
		for i, f := range fields {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[f] = v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// decorate fills display companions: choice labels from the options table and
// lookup display names from the target record set.
func (g *SQL) decorate(ctx context.Context, recordSet string, records []Record) error {
	lvl, ok := g.levelFor(recordSet)
	if !ok || len(records) == 0 {
		return nil
	}
	for _, col := range lvl.Columns {
		switch {
		case col.Kind == schema.KindBoolean:
			// SQLite hands booleans back as 0/1.
			for _, r := range records {
				switch r.Raw(col.Key) {
				case "1", "true":
					r[col.Key+DisplaySuffix] = "Yes"
				case "0", "false":
					r[col.Key+DisplaySuffix] = "No"
				}
			}
		case col.Kind == schema.KindChoice:
			opts, err := g.ResolveEnumeration(ctx, recordSet, col.Key, schema.KindChoice)
			if err != nil {
				continue
			}
			labels := map[string]string{}
			for _, o := range opts {
				labels[o.Value] = o.Label
			}
			for _, r := range records {
				if raw := r.Raw(col.Key); raw != "" {
					if label, ok := labels[raw]; ok {
						r[col.Key+DisplaySuffix] = label
					}
				}
			}
		case col.Kind == schema.KindLookup && col.Lookup != nil:
			if err := g.decorateLookup(ctx, col, records); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *SQL) decorateLookup(ctx context.Context, col schema.Column, records []Record) error {
	lk := *col.Lookup
	keys := map[string]bool{}
	for _, r := range records {
		if k := r.Key(col.Key); k != "" {
			keys[k] = true
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := checkIdent(lk.RecordSet); err != nil {
		return err
	}
	if err := checkIdent(lk.KeyField); err != nil {
		return err
	}
	if err := checkIdent(lk.NameField); err != nil {
		return err
	}
	placeholders := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for k := range keys {
		placeholders = append(placeholders, "?")
		args = append(args, k)
	}
	q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN (%s)",
		lk.KeyField, lk.NameField, lk.RecordSet, lk.KeyField, strings.Join(placeholders, ", "))
	rows, err := g.db.QueryContext(ctx, g.rebind(q), args...)
	if err != nil {
		return fmt.Errorf("lookup display %s: %w", lk.RecordSet, err)
	}
	defer rows.Close()
	names := map[string]string{}
	for rows.Next() {
		var key, name sql.NullString
		if err := rows.Scan(&key, &name); err != nil {
			return err
		}
		names[key.String] = name.String
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, r := range records {
		if name, ok := names[r.Key(col.Key)]; ok && name != "" {
			r[col.Key+DisplaySuffix] = name
		}
	}
	return nil
}

func (g *SQL) levelFor(recordSet string) (schema.Level, bool) {
	for _, l := range g.hier.Levels {
		if l.RecordSet == recordSet {
			return l, true
		}
	}
	return schema.Level{}, false
}

// Patch implements Gateway.
func (g *SQL) Patch(ctx context.Context, recordSet, key string, fields map[string]any) error {
	lvl, ok := g.levelFor(recordSet)
	if !ok {
		return fmt.Errorf("patch %s: record set not in hierarchy", recordSet)
	}
	if err := checkIdent(recordSet); err != nil {
		return err
	}
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for k, v := range fields {
		if b, ok := v.(Binding); ok {
			// Relationship bindings store the target identity in the lookup
			// column itself.
			k, v = b.Field, b.Key
		}
		if err := checkIdent(k); err != nil {
			return err
		}
		sets = append(sets, k+" = ?")
		args = append(args, v)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, key)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", recordSet, strings.Join(sets, ", "), lvl.Key)
	res, err := g.db.ExecContext(ctx, g.rebind(q), args...)
	if err != nil {
		return fmt.Errorf("patch %s(%s): %w", recordSet, key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("patch %s(%s): no such record", recordSet, key)
	}
	return nil
}

// SearchByText implements Gateway.
func (g *SQL) SearchByText(ctx context.Context, lk schema.Lookup, text string) ([]Candidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	fields := append([]string{}, lk.DisplayFields...)
	if len(fields) == 0 {
		fields = []string{lk.NameField}
	}
	selectFields := dedup(append(fields, lk.KeyField))
	for _, f := range append(selectFields, lk.RecordSet) {
		if err := checkIdent(f); err != nil {
			return nil, err
		}
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s LIKE ? ESCAPE '\'`,
		strings.Join(selectFields, ", "), lk.RecordSet, lk.NameField)
	rows, err := g.db.QueryContext(ctx, g.rebind(q), "%"+escapeLike(text)+"%")
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", lk.RecordSet, err)
	}
	defer rows.Close()
	records, err := scanRecords(rows, selectFields)
	if err != nil {
		return nil, err
	}
	return candidatesFromRecords(records, lk), nil
}

// ResolveEnumeration implements Gateway using the nestgrid_options table.
func (g *SQL) ResolveEnumeration(ctx context.Context, recordSet, field string, kind schema.ValueKind) ([]Option, error) {
	if opts, ok := g.enums.get(recordSet, field, kind); ok {
		return opts, nil
	}
	rows, err := g.db.QueryContext(ctx,
		g.rebind("SELECT value, label FROM nestgrid_options WHERE recordset = ? AND field = ? ORDER BY pos"),
		recordSet, field)
	if err != nil {
		if kind == schema.KindBoolean {
			return YesNoOptions(), nil
		}
		return nil, nil
	}
	defer rows.Close()
	var opts []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.Value, &o.Label); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(opts) == 0 && kind == schema.KindBoolean {
		return YesNoOptions(), nil
	}
	g.enums.put(recordSet, field, kind, opts)
	return opts, nil
}
