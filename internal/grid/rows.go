// Package grid is the hierarchy engine: it walks the configured levels from
// the root down, queries each expanded scope through the gateway, applies the
// client-side filter pass, and yields a flat row list for rendering. It also
// owns inline editing and column width handling.
package grid

import (
	"nestgrid/internal/gateway"
	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

// Row is one rendered grid row. Rows at level>0 exist only while their
// parent is expanded.
type Row struct {
	ID      state.RowID
	Level   int
	Context string // parent scope context ("__root__" at level 0)
	Key     string // sanitized record identity
	Record  gateway.Record

	HasChild bool
	Expanded bool
	Selected bool
}

// Snapshot is the result of one full render pass.
type Snapshot struct {
	Rows []Row
	// Visible counts level-0 rows that survived client filtering; the row
	// count line shows this number.
	Visible int
}

// Columns returns the column set of a row's level, or nil for an unknown
// level.
func (s Snapshot) Columns(h schema.Hierarchy, level int) []schema.Column {
	lvl, ok := h.Level(level)
	if !ok {
		return nil
	}
	return lvl.Columns
}

// ByID finds a row in the snapshot.
func (s Snapshot) ByID(id state.RowID) (Row, bool) {
	for _, r := range s.Rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}
