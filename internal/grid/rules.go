package grid

import (
	"fmt"

	"nestgrid/internal/gateway"
	"nestgrid/internal/schema"
)

// Rule is one pre-save validation hook. It sees the owning record, the column
// under edit, and the already-validated new value. A non-nil error aborts the
// save before any network call; the abort is silent (session returns to idle
// without a field-level message).
type Rule func(level int, col schema.Column, rec gateway.Record, value string) error

// Chain runs rules in order and stops at the first rejection.
type Chain []Rule

func (c Chain) Check(level int, col schema.Column, rec gateway.Record, value string) error {
	for _, r := range c {
		if err := r(level, col, rec, value); err != nil {
			return err
		}
	}
	return nil
}

// NumberCap rejects edits that push a numeric field above a fixed ceiling.
func NumberCap(field string, ceiling float64) Rule {
	return func(_ int, col schema.Column, _ gateway.Record, value string) error {
		if col.Key != field {
			return nil
		}
		n, ok := parseNumber(value)
		if !ok {
			return nil
		}
		if n > ceiling {
			return fmt.Errorf("%s may not exceed %v", field, ceiling)
		}
		return nil
	}
}

// DefaultRules is the shipped chain: estimated value is capped at 100000.
func DefaultRules() Chain {
	return Chain{NumberCap("estimatedvalue", 100000)}
}
