package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nestgrid/internal/gateway"
	"nestgrid/internal/grid"
	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

const lookupDebounce = 300 * time.Millisecond

// appModel is the bubbletea model for the grid. Update uses a value
// receiver; all mutation happens on the copy that is returned.
type appModel struct {
	engine *grid.Engine
	editor *grid.Editor
	widths *grid.WidthController

	// statePath is where scoped state persists between sessions; empty
	// disables persistence.
	statePath string

	snap    grid.Snapshot
	loadErr string

	cursor    int // index into snap.Rows
	colCursor int // column index within the cursor row's level
	scroll    int

	width, height  int
	seenWindowSize bool
	resizing       bool
	resizeSeq      int

	modal modal

	// Filter popup state. The modal picks its control from the column kind:
	// plain text, an option list, or a lookup typeahead.
	filterOp        state.Op
	filterInput     textinput.Model
	filterCol       string
	filterScope     state.Scope
	filterKind      schema.ValueKind
	filterLookup    *schema.Lookup
	filterHits      []gateway.Candidate
	filterHitIdx    int // -1 means free text, no candidate picked
	filterSeq       int
	filterOptions   []gateway.Option
	filterOptsReady bool
	filterOptIdx    int

	// Edit state.
	editInput     textinput.Model
	editRow       grid.Row
	editErr       string
	editOptions   []gateway.Option
	editOptsReady bool
	editOptIdx    int

	// Lookup typeahead.
	lookupInput  textinput.Model
	lookupSeq    int
	lookupHits   []gateway.Candidate
	lookupCursor int

	// Global search box.
	searchInput textinput.Model

	status    string
	statusSeq int
	errText   string

	helpScroll int
}

func newAppModel(e *grid.Engine, statePath string) appModel {
	mk := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 256
		ti.Width = 40
		return ti
	}
	return appModel{
		engine:      e,
		editor:      grid.NewEditor(e),
		widths:      grid.NewWidthController(e.State),
		statePath:   statePath,
		filterOp:    state.OpContains,
		filterInput: mk("value"),
		editInput:   mk(""),
		lookupInput: mk("type to search"),
		searchInput: mk("search"),
	}
}

func (m appModel) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m appModel) refreshCmd() tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		snap, err := e.Refresh(context.Background())
		return refreshDoneMsg{snap: snap, err: err}
	}
}

func (m *appModel) persist() {
	if m.statePath == "" {
		return
	}
	// Best effort; a failed write never interrupts the session.
	_ = state.Save(m.statePath, m.engine.State)
}

// currentRow returns the row under the cursor.
func (m appModel) currentRow() (grid.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Rows) {
		return grid.Row{}, false
	}
	return m.snap.Rows[m.cursor], true
}

// currentColumns is the column set of the cursor row's level.
func (m appModel) currentColumns() []schema.Column {
	row, ok := m.currentRow()
	if !ok {
		if lvl, ok := m.engine.Hierarchy.Level(0); ok {
			return lvl.Columns
		}
		return nil
	}
	lvl, _ := m.engine.Hierarchy.Level(row.Level)
	return lvl.Columns
}

func (m appModel) currentColumn() (schema.Column, bool) {
	cols := m.currentColumns()
	if m.colCursor < 0 || m.colCursor >= len(cols) {
		return schema.Column{}, false
	}
	return cols[m.colCursor], true
}

func (m *appModel) clampCursor() {
	if m.cursor >= len(m.snap.Rows) {
		m.cursor = len(m.snap.Rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if cols := m.currentColumns(); m.colCursor >= len(cols) {
		m.colCursor = len(cols) - 1
	}
	if m.colCursor < 0 {
		m.colCursor = 0
	}
}

func (m *appModel) showStatus(text string) tea.Cmd {
	m.status = text
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}
