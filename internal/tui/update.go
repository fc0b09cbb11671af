package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"nestgrid/internal/gateway"
	"nestgrid/internal/grid"
	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Don't show the resize overlay on startup; only after we've seen an
		// initial size.
		if !m.seenWindowSize {
			m.seenWindowSize = true
			m.resizing = false
			return m, nil
		}
		m.resizing = true
		m.resizeSeq++
		seq := m.resizeSeq
		return m, tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg { return resizeDoneMsg{seq: seq} })

	case resizeDoneMsg:
		// Debounce: only clear if this corresponds to the latest resize seq.
		if msg.seq == m.resizeSeq {
			m.resizing = false
		}
		return m, nil

	case refreshDoneMsg:
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			m.snap = grid.Snapshot{}
			m.clampCursor()
			return m, nil
		}
		m.loadErr = ""
		m.snap = msg.snap
		m.clampCursor()
		return m, nil

	case saveDoneMsg:
		if msg.rejected {
			// Business-rule abort: silent, just repaint.
			m.modal = modalNone
			return m, m.refreshCmd()
		}
		var verr *grid.ValidationError
		if errors.As(msg.err, &verr) && m.engine.Session.Phase() == state.EditEditing {
			// Field-level rejection: the session is still live, so put the
			// editor back up with the reason and let the user correct it.
			m.editErr = verr.Reason
			m.modal = m.editorModal()
			return m, nil
		}
		if msg.err != nil {
			m.errText = msg.err.Error()
			m.modal = modalError
			return m, m.refreshCmd()
		}
		m.modal = modalNone
		m.editErr = ""
		cmd := m.showStatus("saved " + msg.field)
		return m, tea.Batch(cmd, m.refreshCmd())

	case lookupDebounceMsg:
		if msg.seq != m.lookupSeq || m.modal != modalLookup {
			return m, nil
		}
		return m, m.lookupSearchCmd(msg.seq)

	case lookupResultsMsg:
		// Last-response-wins: drop anything but the newest cycle.
		if msg.seq != m.lookupSeq || m.modal != modalLookup {
			return m, nil
		}
		if msg.err != nil {
			m.lookupHits = nil
			return m, nil
		}
		m.lookupHits = msg.candidates
		if m.lookupCursor >= len(m.lookupHits) {
			m.lookupCursor = 0
		}
		return m, nil

	case optionsMsg:
		if m.modal != modalOptions {
			return m, nil
		}
		m.editOptions = msg.opts
		m.editOptsReady = true
		m.editOptIdx = 0
		return m, nil

	case filterOptionsMsg:
		if m.modal != modalFilter {
			return m, nil
		}
		m.filterOptions = msg.opts
		m.filterOptsReady = true
		m.filterOptIdx = 0
		return m, nil

	case filterDebounceMsg:
		if msg.seq != m.filterSeq || m.modal != modalFilter {
			return m, nil
		}
		return m, m.filterSearchCmd(msg.seq)

	case filterHitsMsg:
		if msg.seq != m.filterSeq || m.modal != modalFilter {
			return m, nil
		}
		if msg.err != nil {
			m.filterHits = nil
			m.filterHitIdx = -1
			return m, nil
		}
		m.filterHits = msg.candidates
		if m.filterHitIdx >= len(m.filterHits) {
			m.filterHitIdx = -1
		}
		return m, nil

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.persist()
		return m, tea.Quit
	}
	switch m.modal {
	case modalFilter:
		return m.updateFilterModal(msg)
	case modalEdit:
		return m.updateEditModal(msg)
	case modalOptions:
		return m.updateOptionsModal(msg)
	case modalLookup:
		return m.updateLookupModal(msg)
	case modalSearch:
		return m.updateSearchModal(msg)
	case modalError:
		m.modal = modalNone
		m.errText = ""
		if m.engine.Session.Phase() != state.EditIdle {
			// Never leave a dead session holding the single-flight lock.
			m.editor.Cancel()
		}
		return m, nil
	case modalHelp:
		return m.updateHelpModal(msg)
	}
	return m.updateGridKey(msg)
}

func (m appModel) updateGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.persist()
		return m, tea.Quit

	case "j", "down":
		m.cursor++
		m.clampCursor()
		return m, nil
	case "k", "up":
		m.cursor--
		m.clampCursor()
		return m, nil
	case "g", "home":
		m.cursor = 0
		m.clampCursor()
		return m, nil
	case "G", "end":
		m.cursor = len(m.snap.Rows) - 1
		m.clampCursor()
		return m, nil
	case "h", "left":
		m.colCursor--
		m.clampCursor()
		return m, nil
	case "l", "right":
		m.colCursor++
		m.clampCursor()
		return m, nil

	case " ", "enter":
		row, ok := m.currentRow()
		if !ok || !row.HasChild {
			return m, nil
		}
		m.engine.ToggleExpand(row.ID)
		return m, m.refreshCmd()

	case "s", "S":
		if m.widths.SuppressSort() {
			return m, nil
		}
		row, ok := m.currentRow()
		col, colOK := m.currentColumn()
		if !ok || !colOK {
			return m, nil
		}
		sc := state.Scope{Level: row.Level, Context: row.Context}
		m.engine.State.ToggleSort(sc, col.Key, msg.String() == "S")
		m.persist()
		return m, m.refreshCmd()

	case "f":
		row, ok := m.currentRow()
		col, colOK := m.currentColumn()
		if !ok || !colOK {
			return m, nil
		}
		m.filterScope = state.Scope{Level: row.Level, Context: row.Context}
		m.filterCol = col.Key
		m.filterKind = col.Kind
		m.filterLookup = col.Lookup
		m.filterHits = nil
		m.filterHitIdx = -1
		existing, _ := m.engine.State.Filter(m.filterScope, col.Key)
		if existing.Op != "" {
			m.filterOp = existing.Op
		} else {
			m.filterOp = state.OpContains
		}
		m.filterInput.SetValue(existing.Value)
		m.filterInput.Focus()
		m.modal = modalFilter
		if !col.IsLookup() && (col.Kind == schema.KindChoice || col.Kind == schema.KindBoolean) {
			// Coded columns filter by exact option value, picked from a list.
			m.filterOp = state.OpEquals
			m.filterOptions = nil
			m.filterOptsReady = false
			m.filterOptIdx = 0
			return m, m.filterOptionsCmd(row.Level, col)
		}
		return m, nil

	case "F":
		// Global reset: filters, search, and the expansion set.
		m.engine.State.ClearAllFilters()
		m.engine.CollapseAll()
		m.engine.SetSearch("")
		m.searchInput.SetValue("")
		m.persist()
		return m, m.refreshCmd()

	case "C":
		m.engine.CollapseAll()
		return m, m.refreshCmd()

	case "e":
		return m.startEdit()

	case "<":
		return m.adjustWidth(-4), nil
	case ">":
		return m.adjustWidth(4), nil

	case "/":
		m.searchInput.SetValue(m.engine.Search)
		m.searchInput.Focus()
		m.modal = modalSearch
		return m, nil

	case "c":
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		lvl, _ := m.engine.Hierarchy.Level(row.Level)
		m.engine.State.ToggleSelect(row.Level, row.Key, lvl.Multiple)
		return m, m.refreshCmd()

	case "r":
		return m, m.refreshCmd()

	case "?":
		m.helpScroll = 0
		m.modal = modalHelp
		return m, nil
	}
	return m, nil
}

func (m appModel) adjustWidth(delta int) appModel {
	row, ok := m.currentRow()
	col, colOK := m.currentColumn()
	if !ok || !colOK {
		return m
	}
	sc := state.Scope{Level: row.Level, Context: row.Context}
	current := m.widths.Width(sc, col.Key, defaultColWidth(col))
	m.widths.Adjust(sc, col.Key, current, delta)
	m.persist()
	return m
}

func (m appModel) startEdit() (tea.Model, tea.Cmd) {
	row, ok := m.currentRow()
	col, colOK := m.currentColumn()
	if !ok || !colOK {
		return m, nil
	}
	if !m.editor.Start(row, col.Key) {
		return m, nil
	}
	m.editRow = row
	m.editErr = ""
	switch {
	case col.IsLookup():
		m.lookupInput.SetValue("")
		m.lookupInput.Focus()
		m.lookupHits = nil
		m.lookupCursor = 0
		m.modal = modalLookup
		return m, nil
	case col.Kind == schema.KindChoice || col.Kind == schema.KindBoolean:
		m.editOptions = nil
		m.editOptsReady = false
		m.editOptIdx = 0
		m.modal = modalOptions
		return m, m.resolveOptionsCmd(row, col)
	default:
		m.editInput.SetValue(row.Record.Raw(col.Key))
		m.editInput.CursorEnd()
		m.editInput.Focus()
		m.modal = modalEdit
		return m, nil
	}
}

func (m appModel) resolveOptionsCmd(row grid.Row, col schema.Column) tea.Cmd {
	e := m.engine
	lvl, _ := e.Hierarchy.Level(row.Level)
	return func() tea.Msg {
		opts, err := e.Gateway.ResolveEnumeration(context.Background(), lvl.RecordSet, col.Key, col.Kind)
		return optionsMsg{opts: opts, err: err}
	}
}

func (m appModel) saveCmd(row grid.Row, value string) tea.Cmd {
	ed := m.editor
	sess := m.engine.Session
	field := sess.Context().Column
	return func() tea.Msg {
		err := ed.Save(context.Background(), row, value)
		if errors.Is(err, grid.ErrRuleRejected) {
			return saveDoneMsg{rejected: true, field: field}
		}
		return saveDoneMsg{err: err, field: field}
	}
}

// editorModal maps the active edit session's column to the modal that edits
// it, so a validation bounce reopens the right control.
func (m appModel) editorModal() modal {
	ec := m.engine.Session.Context()
	col, ok := m.engine.Hierarchy.ColumnAt(ec.Level, ec.Column)
	switch {
	case !ok:
		return modalEdit
	case col.IsLookup():
		return modalLookup
	case col.Kind == schema.KindChoice || col.Kind == schema.KindBoolean:
		return modalOptions
	}
	return modalEdit
}

func (m appModel) updateEditModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editor.Cancel()
		m.modal = modalNone
		m.editErr = ""
		return m, m.refreshCmd()
	case "enter":
		// Keep the modal up while the save is in flight; saveDoneMsg decides
		// whether it closes or comes back with a field error.
		if m.engine.Session.Phase() != state.EditEditing {
			return m, nil
		}
		m.editErr = ""
		return m, m.saveCmd(m.editRow, m.editInput.Value())
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m appModel) updateOptionsModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editor.Cancel()
		m.modal = modalNone
		m.editErr = ""
		return m, m.refreshCmd()
	case "j", "down":
		if m.editOptIdx < len(m.editOptions)-1 {
			m.editOptIdx++
		}
		return m, nil
	case "k", "up":
		if m.editOptIdx > 0 {
			m.editOptIdx--
		}
		return m, nil
	case "enter", " ":
		if m.editOptIdx >= len(m.editOptions) || m.engine.Session.Phase() != state.EditEditing {
			return m, nil
		}
		m.editErr = ""
		return m, m.saveCmd(m.editRow, m.editOptions[m.editOptIdx].Value)
	}
	return m, nil
}

func (m appModel) lookupSearchCmd(seq int) tea.Cmd {
	e := m.engine
	ec := e.Session.Context()
	col, ok := e.Hierarchy.ColumnAt(ec.Level, ec.Column)
	if !ok || col.Lookup == nil {
		return nil
	}
	lk := *col.Lookup
	text := m.lookupInput.Value()
	return func() tea.Msg {
		hits, err := e.Gateway.SearchByText(context.Background(), lk, text)
		return lookupResultsMsg{seq: seq, candidates: hits, err: err}
	}
}

func (m appModel) updateLookupModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editor.Cancel()
		m.modal = modalNone
		m.editErr = ""
		return m, m.refreshCmd()
	case "down", "ctrl+n":
		if m.lookupCursor < len(m.lookupHits)-1 {
			m.lookupCursor++
		}
		return m, nil
	case "up", "ctrl+p":
		if m.lookupCursor > 0 {
			m.lookupCursor--
		}
		return m, nil
	case "enter":
		var cand gateway.Candidate
		if m.lookupCursor < len(m.lookupHits) {
			cand = m.lookupHits[m.lookupCursor]
		}
		row := m.editRow
		ed := m.editor
		m.modal = modalNone
		return m, func() tea.Msg {
			err := ed.SaveLookup(context.Background(), row, cand)
			return saveDoneMsg{err: err, field: "lookup"}
		}
	}
	var cmd tea.Cmd
	before := m.lookupInput.Value()
	m.lookupInput, cmd = m.lookupInput.Update(msg)
	if m.lookupInput.Value() != before {
		// Each keystroke resets the timer; only the last pending one fires.
		m.lookupSeq++
		seq := m.lookupSeq
		return m, tea.Batch(cmd,
			tea.Tick(lookupDebounce, func(time.Time) tea.Msg { return lookupDebounceMsg{seq: seq} }))
	}
	return m, cmd
}

func (m appModel) updateSearchModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.modal = modalNone
		return m, nil
	case "enter":
		m.engine.SetSearch(m.searchInput.Value())
		m.modal = modalNone
		return m, m.refreshCmd()
	case "ctrl+u":
		m.searchInput.SetValue("")
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m appModel) filterOptionsCmd(level int, col schema.Column) tea.Cmd {
	e := m.engine
	lvl, _ := e.Hierarchy.Level(level)
	return func() tea.Msg {
		opts, err := e.Gateway.ResolveEnumeration(context.Background(), lvl.RecordSet, col.Key, col.Kind)
		return filterOptionsMsg{opts: opts, err: err}
	}
}

func (m appModel) filterSearchCmd(seq int) tea.Cmd {
	if m.filterLookup == nil {
		return nil
	}
	e := m.engine
	lk := *m.filterLookup
	text := m.filterInput.Value()
	return func() tea.Msg {
		hits, err := e.Gateway.SearchByText(context.Background(), lk, text)
		return filterHitsMsg{seq: seq, candidates: hits, err: err}
	}
}

// updateFilterModal routes to the control the column kind calls for: a
// lookup typeahead, an option list for coded columns, or the plain
// operator-plus-text form.
func (m appModel) updateFilterModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.modal = modalNone
		return m, nil
	case "ctrl+d":
		m.engine.State.ClearFilter(m.filterScope, m.filterCol)
		m.modal = modalNone
		m.persist()
		return m, m.refreshCmd()
	}
	switch {
	case m.filterLookup != nil:
		return m.updateLookupFilter(msg)
	case m.filterKind == schema.KindChoice || m.filterKind == schema.KindBoolean:
		return m.updateOptionFilter(msg)
	}
	return m.updateTextFilter(msg)
}

func (m appModel) updateTextFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.filterOp = nextFilterOp(m.filterOp)
		return m, nil
	case "shift+tab":
		m.filterOp = prevFilterOp(m.filterOp)
		return m, nil
	case "enter":
		value := m.filterInput.Value()
		if value == "" {
			m.engine.State.ClearFilter(m.filterScope, m.filterCol)
		} else {
			m.engine.State.SetFilter(m.filterScope, m.filterCol, state.Filter{Op: m.filterOp, Value: value})
		}
		m.modal = modalNone
		m.persist()
		return m, m.refreshCmd()
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m appModel) updateOptionFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.filterOptIdx < len(m.filterOptions)-1 {
			m.filterOptIdx++
		}
		return m, nil
	case "k", "up":
		if m.filterOptIdx > 0 {
			m.filterOptIdx--
		}
		return m, nil
	case "enter", " ":
		if m.filterOptIdx >= len(m.filterOptions) {
			return m, nil
		}
		opt := m.filterOptions[m.filterOptIdx]
		m.engine.State.SetFilter(m.filterScope, m.filterCol, state.Filter{Op: state.OpEquals, Value: opt.Value})
		m.modal = modalNone
		m.persist()
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m appModel) updateLookupFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down", "ctrl+n":
		if m.filterHitIdx < len(m.filterHits)-1 {
			m.filterHitIdx++
		}
		return m, nil
	case "up", "ctrl+p":
		if m.filterHitIdx >= 0 {
			m.filterHitIdx--
		}
		return m, nil
	case "tab":
		m.filterOp = nextFilterOp(m.filterOp)
		return m, nil
	case "shift+tab":
		m.filterOp = prevFilterOp(m.filterOp)
		return m, nil
	case "enter":
		if m.filterHitIdx >= 0 && m.filterHitIdx < len(m.filterHits) {
			// A picked candidate filters by identity, not by label text.
			hit := m.filterHits[m.filterHitIdx]
			m.engine.State.SetFilter(m.filterScope, m.filterCol, state.Filter{
				Op:       state.OpEquals,
				Value:    hit.Display,
				LookupID: hit.Key,
			})
		} else if value := m.filterInput.Value(); value == "" {
			m.engine.State.ClearFilter(m.filterScope, m.filterCol)
		} else {
			// Free text without a pick matches the display label.
			m.engine.State.SetFilter(m.filterScope, m.filterCol, state.Filter{Op: m.filterOp, Value: value})
		}
		m.modal = modalNone
		m.persist()
		return m, m.refreshCmd()
	}
	var cmd tea.Cmd
	before := m.filterInput.Value()
	m.filterInput, cmd = m.filterInput.Update(msg)
	if m.filterInput.Value() != before {
		// Each keystroke resets the timer; only the last pending one fires.
		m.filterHitIdx = -1
		m.filterSeq++
		seq := m.filterSeq
		return m, tea.Batch(cmd,
			tea.Tick(lookupDebounce, func(time.Time) tea.Msg { return filterDebounceMsg{seq: seq} }))
	}
	return m, cmd
}

func (m appModel) updateHelpModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.modal = modalNone
		return m, nil
	case "j", "down":
		m.helpScroll++
		return m, nil
	case "k", "up":
		if m.helpScroll > 0 {
			m.helpScroll--
		}
		return m, nil
	}
	return m, nil
}

var filterOpOrder = []state.Op{
	state.OpContains, state.OpEquals, state.OpStarts, state.OpEnds,
	state.OpGT, state.OpLT, state.OpGTE, state.OpLTE,
}

func nextFilterOp(op state.Op) state.Op {
	for i, o := range filterOpOrder {
		if o == op {
			return filterOpOrder[(i+1)%len(filterOpOrder)]
		}
	}
	return filterOpOrder[0]
}

func prevFilterOp(op state.Op) state.Op {
	for i, o := range filterOpOrder {
		if o == op {
			return filterOpOrder[(i+len(filterOpOrder)-1)%len(filterOpOrder)]
		}
	}
	return filterOpOrder[0]
}
