package grid

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"nestgrid/internal/gateway"
	"nestgrid/internal/query"
	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

// Engine renders the hierarchy. Every refresh is a full pass from the root
// down: collapsed subtrees are skipped, expanded ones are re-queried, and the
// resulting row list fully replaces the previous one. Holding no per-render
// caches between passes keeps a refresh idempotent.
type Engine struct {
	Hierarchy schema.Hierarchy
	Gateway   gateway.Gateway
	State     *state.Store
	Session   *state.Session

	// RootRecordID parameterizes $root base filters and scopes persistence.
	RootRecordID string
	// Search is the global search text; when set it replaces the root
	// level's column filters for the pass.
	Search string
}

// New wires an engine over a gateway and a fresh state store.
func New(h schema.Hierarchy, gw gateway.Gateway, st *state.Store, rootID string) *Engine {
	return &Engine{
		Hierarchy:    h,
		Gateway:      gw,
		State:        st,
		Session:      state.NewSession(),
		RootRecordID: rootID,
	}
}

func (e *Engine) composer() query.Composer {
	return query.Composer{
		Hierarchy:    e.Hierarchy,
		State:        e.State,
		RootRecordID: e.RootRecordID,
		Search:       e.Search,
	}
}

// Refresh runs one full render pass and returns the new snapshot.
func (e *Engine) Refresh(ctx context.Context) (Snapshot, error) {
	seen := map[state.RowID]bool{}
	var snap Snapshot
	if err := e.renderLevel(ctx, 0, "", seen, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// renderLevel queries one (level, parent) scope, appends its surviving rows,
// and recurses into expanded rows.
func (e *Engine) renderLevel(ctx context.Context, level int, parentID string, seen map[state.RowID]bool, snap *Snapshot) error {
	lvl, ok := e.Hierarchy.Level(level)
	if !ok {
		return fmt.Errorf("render: unknown level %d", level)
	}
	spec, err := e.composer().Compose(level, parentID)
	if err != nil {
		return err
	}
	records, err := e.Gateway.Query(ctx, spec)
	if err != nil {
		return fmt.Errorf("render level %d: %w", level, err)
	}

	sc := state.ScopeFor(level, parentID)
	filters := e.activeFilters(sc, lvl)
	debugLogf("render level=%d ctx=%s server=%q order=%q fetched=%d clientfilters=%d",
		level, sc.Context, spec.FilterString(), spec.OrderString(), len(records), len(filters))
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		key := rec.Key(lvl.Key)
		if key == "" {
			continue
		}
		id := state.RowIDFor(level, key)
		// A record reachable through two expanded parents renders once.
		if seen[id] {
			continue
		}
		if !e.matchesAll(lvl, rec, filters) {
			continue
		}
		seen[id] = true
		rows = append(rows, Row{
			ID:       id,
			Level:    level,
			Context:  sc.Context,
			Key:      key,
			Record:   rec,
			HasChild: lvl.Child >= 0,
			Expanded: lvl.Child >= 0 && e.State.Expanded(id),
			Selected: e.State.Selected(level, key),
		})
	}
	e.sortClientSide(lvl, sc, rows)

	for _, row := range rows {
		snap.Rows = append(snap.Rows, row)
		if level == 0 {
			snap.Visible++
		}
		if row.Expanded {
			if err := e.renderLevel(ctx, lvl.Child, row.Key, seen, snap); err != nil {
				return err
			}
		}
	}
	return nil
}

// activeFilters resolves the filters the client pass must apply in a scope.
// Global search replaces the root level's column filters entirely.
func (e *Engine) activeFilters(sc state.Scope, lvl schema.Level) map[string]state.Filter {
	if sc.Level == 0 && strings.TrimSpace(e.Search) != "" {
		return nil
	}
	out := map[string]state.Filter{}
	for col, f := range e.State.Filters(sc) {
		if !f.Active() {
			continue
		}
		if _, ok := lvl.Column(col); !ok {
			continue
		}
		out[col] = f
	}
	return out
}

func (e *Engine) matchesAll(lvl schema.Level, rec gateway.Record, filters map[string]state.Filter) bool {
	for col, f := range filters {
		c, _ := lvl.Column(col)
		if !Matches(c, rec, f) {
			return false
		}
	}
	return true
}

// sortClientSide re-applies the scope's sort order locally so rows stay
// ordered even when a sorted column's server order differs (display labels,
// lookups).
func (e *Engine) sortClientSide(lvl schema.Level, sc state.Scope, rows []Row) {
	sorts := e.State.Sorts(sc)
	if len(sorts) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, s := range sorts {
			col, ok := lvl.Column(s.Key)
			if !ok {
				continue
			}
			cmp := compareField(col, rows[i].Record, rows[j].Record)
			if cmp == 0 {
				continue
			}
			if s.Dir == state.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareField(col schema.Column, a, b gateway.Record) int {
	if col.Kind == schema.KindNumber {
		an, aok := parseNumber(a.Raw(col.Key))
		bn, bok := parseNumber(b.Raw(col.Key))
		if aok && bok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(
		strings.ToLower(a.Display(col.Key)),
		strings.ToLower(b.Display(col.Key)))
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	return n, err == nil
}

// ToggleExpand flips one row's expansion. The caller refreshes afterwards;
// collapsing only prunes the subtree on the next pass.
func (e *Engine) ToggleExpand(id state.RowID) bool {
	return e.State.ToggleExpanded(id)
}

// CollapseAll collapses every expanded row.
func (e *Engine) CollapseAll() {
	e.State.CollapseAll()
}

// SetSearch installs the global search text.
func (e *Engine) SetSearch(text string) {
	e.Search = text
}
