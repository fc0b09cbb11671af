package tui

import (
	"nestgrid/internal/gateway"
	"nestgrid/internal/grid"
)

type modal int

const (
	modalNone modal = iota
	modalFilter
	modalEdit
	modalLookup
	modalOptions
	modalSearch
	modalError
	modalHelp
)

type resizeDoneMsg struct{ seq int }

// refreshDoneMsg carries the result of one full render pass.
type refreshDoneMsg struct {
	snap grid.Snapshot
	err  error
}

// saveDoneMsg reports an edit commit. rejected marks a silent business-rule
// abort (re-render, no message).
type saveDoneMsg struct {
	err      error
	rejected bool
	field    string
}

// lookupDebounceMsg fires when the typeahead timer for seq expires; stale
// seqs are dropped.
type lookupDebounceMsg struct{ seq int }

// lookupResultsMsg delivers search candidates; last-response-wins per
// debounce cycle.
type lookupResultsMsg struct {
	seq        int
	candidates []gateway.Candidate
	err        error
}

// optionsMsg delivers the resolved enumeration for a choice/boolean editor.
type optionsMsg struct {
	opts []gateway.Option
	err  error
}

// filterOptionsMsg delivers the resolved enumeration for a choice/boolean
// filter.
type filterOptionsMsg struct {
	opts []gateway.Option
	err  error
}

// filterDebounceMsg fires when the filter typeahead timer for seq expires.
type filterDebounceMsg struct{ seq int }

// filterHitsMsg delivers lookup candidates for a filter typeahead cycle.
type filterHitsMsg struct {
	seq        int
	candidates []gateway.Candidate
	err        error
}

type statusClearMsg struct{ seq int }
