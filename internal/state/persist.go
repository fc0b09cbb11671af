package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Snapshot is the JSON shape saved between sessions. Keys are stringified
// level indexes, then context keys.
type Snapshot struct {
	Filters map[string]map[string]map[string]Filter `json:"filters,omitempty"`
	Sorts   map[string]map[string][]Sort            `json:"sorts,omitempty"`
	Widths  map[string]map[string]map[string]int    `json:"widths,omitempty"`
}

// Snapshot captures the persistable portion of the store (selection and
// expansion are session-only).
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Filters: map[string]map[string]map[string]Filter{},
		Sorts:   map[string]map[string][]Sort{},
		Widths:  map[string]map[string]map[string]int{},
	}
	for sc, fm := range s.filters {
		if len(fm) == 0 {
			continue
		}
		lvl := strconv.Itoa(sc.Level)
		if snap.Filters[lvl] == nil {
			snap.Filters[lvl] = map[string]map[string]Filter{}
		}
		cp := make(map[string]Filter, len(fm))
		for k, v := range fm {
			cp[k] = v
		}
		snap.Filters[lvl][sc.Context] = cp
	}
	for sc, sorts := range s.sorts {
		if len(sorts) == 0 {
			continue
		}
		lvl := strconv.Itoa(sc.Level)
		if snap.Sorts[lvl] == nil {
			snap.Sorts[lvl] = map[string][]Sort{}
		}
		cp := make([]Sort, len(sorts))
		copy(cp, sorts)
		snap.Sorts[lvl][sc.Context] = cp
	}
	for sc, wm := range s.widths {
		if len(wm) == 0 {
			continue
		}
		lvl := strconv.Itoa(sc.Level)
		if snap.Widths[lvl] == nil {
			snap.Widths[lvl] = map[string]map[string]int{}
		}
		cp := make(map[string]int, len(wm))
		for k, v := range wm {
			cp[k] = v
		}
		snap.Widths[lvl][sc.Context] = cp
	}
	return snap
}

// Restore builds a store from persisted JSON. Older snapshots stored filters
// either as a flat column map or as per-level maps without context buckets;
// both shapes are migrated here, once, into the canonical
// (level, context) → filter map layout. Steady-state code never sees the old
// shapes.
func Restore(raw []byte) (*Store, error) {
	st := NewStore()
	if len(raw) == 0 {
		return st, nil
	}

	var probe struct {
		Filters json.RawMessage                      `json:"filters"`
		Sorts   map[string]map[string][]Sort         `json:"sorts"`
		Widths  map[string]map[string]map[string]int `json:"widths"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode state snapshot: %w", err)
	}

	if len(probe.Filters) > 0 {
		filters, err := normalizeFilterShape(probe.Filters)
		if err != nil {
			return nil, err
		}
		for sc, fm := range filters {
			for col, f := range fm {
				st.SetFilter(sc, col, f)
			}
		}
	}
	for lvl, byCtx := range probe.Sorts {
		level, err := strconv.Atoi(lvl)
		if err != nil {
			continue
		}
		for ctx, sorts := range byCtx {
			st.sorts[Scope{Level: level, Context: ctx}] = sorts
		}
	}
	for lvl, byCtx := range probe.Widths {
		level, err := strconv.Atoi(lvl)
		if err != nil {
			continue
		}
		for ctx, wm := range byCtx {
			for col, px := range wm {
				st.SetWidth(Scope{Level: level, Context: ctx}, col, px)
			}
		}
	}
	return st, nil
}

// normalizeFilterShape migrates any of the three historical filter layouts to
// the canonical scope-keyed map:
//
//	flat:        {col: {op,value}}                     → level 0, root context
//	per-level:   {"0": {col: {op,value}}}              → root context per level
//	canonical:   {"0": {"__root__": {col: {op,value}}}}
func normalizeFilterShape(raw json.RawMessage) (map[Scope]map[string]Filter, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}

	out := map[Scope]map[string]Filter{}
	put := func(sc Scope, col string, f Filter) {
		if out[sc] == nil {
			out[sc] = map[string]Filter{}
		}
		out[sc][col] = f
	}

	hasLevelKeys := false
	for k := range top {
		if _, err := strconv.Atoi(k); err == nil {
			hasLevelKeys = true
			break
		}
	}

	if !hasLevelKeys {
		// Legacy flat map at the root.
		for col, fraw := range top {
			var f Filter
			if err := json.Unmarshal(fraw, &f); err != nil {
				return nil, fmt.Errorf("decode legacy filter %q: %w", col, err)
			}
			put(RootScope(), col, f)
		}
		return out, nil
	}

	for lvl, bucketRaw := range top {
		level, err := strconv.Atoi(lvl)
		if err != nil {
			continue
		}
		var bucket map[string]json.RawMessage
		if err := json.Unmarshal(bucketRaw, &bucket); err != nil {
			return nil, fmt.Errorf("decode filter level %s: %w", lvl, err)
		}
		for key, inner := range bucket {
			// A bucket value that decodes as a Filter (carries op/value) is
			// the legacy per-level shape; otherwise key is a context key.
			if looksLikeFilter(inner) {
				var f Filter
				if err := json.Unmarshal(inner, &f); err != nil {
					return nil, fmt.Errorf("decode filter %s/%s: %w", lvl, key, err)
				}
				put(Scope{Level: level, Context: RootContext}, key, f)
				continue
			}
			var fm map[string]Filter
			if err := json.Unmarshal(inner, &fm); err != nil {
				return nil, fmt.Errorf("decode filter context %s/%s: %w", lvl, key, err)
			}
			for col, f := range fm {
				put(Scope{Level: level, Context: key}, col, f)
			}
		}
	}
	return out, nil
}

func looksLikeFilter(raw json.RawMessage) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	_, hasOp := m["op"]
	_, hasValue := m["value"]
	return hasOp || hasValue
}

// Save writes the snapshot to path (best effort callers ignore the error).
func Save(path string, st *Store) error {
	b, err := json.MarshalIndent(st.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Load restores a store from path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewStore(), nil
	}
	if err != nil {
		return nil, err
	}
	return Restore(b)
}
