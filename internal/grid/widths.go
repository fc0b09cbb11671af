package grid

import (
	"time"

	"nestgrid/internal/state"
)

const (
	// MinColumnWidth is the clamp floor for resizes.
	MinColumnWidth = 40
	// sortSuppressWindow keeps a resize gesture from doubling as a sort
	// click on the same header.
	sortSuppressWindow = 300 * time.Millisecond
)

// WidthController owns column width adjustments. Widths live in the scoped
// state store, so the same column key under sibling parents resizes
// independently. It is independent of fetch/filter/sort.
type WidthController struct {
	State *state.Store

	now        func() time.Time
	lastResize time.Time
}

// NewWidthController wires the controller over a store.
func NewWidthController(st *state.Store) *WidthController {
	return &WidthController{State: st, now: time.Now}
}

// Width returns the stored width for a column in a scope, or fallback when
// none has been set.
func (w *WidthController) Width(sc state.Scope, col string, fallback int) int {
	if px, ok := w.State.Width(sc, col); ok {
		return px
	}
	return fallback
}

// Adjust applies a delta to a column's width in one scope, clamping at the
// minimum, and records the gesture for sort suppression.
func (w *WidthController) Adjust(sc state.Scope, col string, current, delta int) int {
	px := current + delta
	if px < MinColumnWidth {
		px = MinColumnWidth
	}
	w.State.SetWidth(sc, col, px)
	w.lastResize = w.now()
	return px
}

// Set stores an absolute width, clamped at the minimum.
func (w *WidthController) Set(sc state.Scope, col string, px int) int {
	if px < MinColumnWidth {
		px = MinColumnWidth
	}
	w.State.SetWidth(sc, col, px)
	w.lastResize = w.now()
	return px
}

// SuppressSort reports whether a header click should be ignored because a
// resize gesture just ended.
func (w *WidthController) SuppressSort() bool {
	return !w.lastResize.IsZero() && w.now().Sub(w.lastResize) < sortSuppressWindow
}
