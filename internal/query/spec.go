// Package query turns scoped grid state into normalized server queries. A
// Spec is structured (clause list + order + field list) so gateways can either
// render it to the remote API's filter syntax or compile it to SQL; the
// canonical string rendering matches the upstream OData dialect.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nestgrid/internal/state"
)

// CompareOp is the server-side comparison vocabulary.
type CompareOp string

const (
	CmpEq         CompareOp = "eq"
	CmpNe         CompareOp = "ne"
	CmpGt         CompareOp = "gt"
	CmpLt         CompareOp = "lt"
	CmpGe         CompareOp = "ge"
	CmpLe         CompareOp = "le"
	CmpContains   CompareOp = "contains"
	CmpStartsWith CompareOp = "startswith"
	CmpEndsWith   CompareOp = "endswith"
)

// Clause is one ANDed server filter term. Exactly one of the value fields is
// set; it decides both string rendering and SQL parameter typing.
type Clause struct {
	Field string
	Op    CompareOp

	Number *float64
	Bool   *bool
	Text   *string
	// Raw renders verbatim (numeric choice values, pre-quoted GUIDs).
	Raw *string
}

// NumberClause builds a numeric comparison clause.
func NumberClause(field string, op CompareOp, v float64) Clause {
	return Clause{Field: field, Op: op, Number: &v}
}

// BoolClause builds a boolean equality clause.
func BoolClause(field string, v bool) Clause {
	return Clause{Field: field, Op: CmpEq, Bool: &v}
}

// TextClause builds a string clause; the value is quote-escaped on render.
func TextClause(field string, op CompareOp, v string) Clause {
	return Clause{Field: field, Op: op, Text: &v}
}

// RawClause builds a clause whose operand renders verbatim.
func RawClause(field string, op CompareOp, v string) Clause {
	return Clause{Field: field, Op: op, Raw: &v}
}

var guidRe = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)

// KeyClause builds the parent-linkage clause for a raw record key. GUID-shaped
// keys render quoted, anything else verbatim.
func KeyClause(field, key string) Clause {
	if guidRe.MatchString(key) {
		return TextClause(field, CmpEq, key)
	}
	return RawClause(field, CmpEq, key)
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// String renders the clause in the remote filter dialect.
func (c Clause) String() string {
	operand := ""
	switch {
	case c.Number != nil:
		operand = strconv.FormatFloat(*c.Number, 'f', -1, 64)
	case c.Bool != nil:
		operand = strconv.FormatBool(*c.Bool)
	case c.Text != nil:
		operand = "'" + escapeQuotes(*c.Text) + "'"
	case c.Raw != nil:
		operand = *c.Raw
	}
	switch c.Op {
	case CmpContains, CmpStartsWith, CmpEndsWith:
		return fmt.Sprintf("%s(%s,%s)", c.Op, c.Field, operand)
	default:
		return fmt.Sprintf("%s %s %s", c.Field, c.Op, operand)
	}
}

// OrderBy is one entry of the order expression.
type OrderBy struct {
	Field string
	Dir   state.Dir
}

// Spec is a composed, normalized query for one level instance.
type Spec struct {
	RecordSet string
	Fields    []string
	Clauses   []Clause
	Order     []OrderBy
}

// FilterString renders the ANDed filter expression, empty when unfiltered.
func (s Spec) FilterString() string {
	parts := make([]string, 0, len(s.Clauses))
	for _, c := range s.Clauses {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " and ")
}

// OrderString renders the order expression ("field dir,field dir"), empty when
// the gateway's default order applies.
func (s Spec) OrderString() string {
	if len(s.Order) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.Order))
	for _, o := range s.Order {
		parts = append(parts, o.Field+" "+string(o.Dir))
	}
	return strings.Join(parts, ",")
}
