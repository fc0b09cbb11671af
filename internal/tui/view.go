package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"nestgrid/internal/grid"
	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

// Column widths persist in pixel units so the saved state stays portable;
// the terminal renders one cell per pxPerCell pixels.
const (
	pxPerCell   = 8
	minCellsCol = 6
)

func defaultColWidth(col schema.Column) int {
	switch {
	case col.IsLookup():
		return 176
	case col.Kind == schema.KindNumber:
		return 112
	case col.Kind == schema.KindBoolean:
		return 80
	case col.Kind == schema.KindChoice:
		return 128
	default:
		return 176
	}
}

func cells(px int) int {
	c := px / pxPerCell
	if c < minCellsCol {
		c = minCellsCol
	}
	return c
}

func (m appModel) View() string {
	if !m.seenWindowSize || m.width <= 0 {
		return ""
	}
	if m.resizing {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styleMuted().Render("resizing"+glyphEllipsis()))
	}

	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteByte('\n')
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	bodyH := m.height - 4 // title, header, rule, status
	if bodyH < 1 {
		bodyH = 1
	}
	b.WriteString(m.renderBody(bodyH))
	b.WriteByte('\n')
	b.WriteString(m.renderStatusLine())

	base := b.String()
	if m.modal != modalNone {
		return m.overlayModal(base)
	}
	return base
}

func (m appModel) renderTitle() string {
	lvl, _ := m.engine.Hierarchy.Level(0)
	title := lvl.Title
	if title == "" {
		title = lvl.RecordSet
	}
	st := lipgloss.NewStyle().Bold(true)
	line := st.Render(title)
	if m.engine.Search != "" {
		line += styleMuted().Render("  search: " + m.engine.Search)
	}
	return normalizePane(line, m.width, 1)
}

// renderHeader draws the column header for the cursor row's level. Headers
// carry sort and filter glyphs when that column has scoped state.
func (m appModel) renderHeader() string {
	row, hasRow := m.currentRow()
	sc := state.RootScope()
	level := 0
	if hasRow {
		sc = state.Scope{Level: row.Level, Context: row.Context}
		level = row.Level
	}
	cols := m.snap.Columns(m.engine.Hierarchy, level)
	if cols == nil {
		lvl, _ := m.engine.Hierarchy.Level(0)
		cols = lvl.Columns
	}

	sorts := m.engine.State.Sorts(sc)
	sortDir := map[string]state.Dir{}
	for _, s := range sorts {
		sortDir[s.Key] = s.Dir
	}

	var hdr []string
	hdr = append(hdr, strings.Repeat(" ", indentWidth(level)+4))
	for i, col := range cols {
		w := cells(m.widths.Width(sc, col.Key, defaultColWidth(col)))
		label := col.Label
		if dir, ok := sortDir[col.Key]; ok {
			if dir == state.Asc {
				label += " " + glyphSortAsc()
			} else {
				label += " " + glyphSortDesc()
			}
		}
		if f, ok := m.engine.State.Filter(sc, col.Key); ok && f.Active() {
			label += " " + glyphFilter()
		}
		st := lipgloss.NewStyle().Bold(true)
		if _, sorted := sortDir[col.Key]; sorted {
			st = st.Foreground(colorHeaderActiveFg)
		} else if f, ok := m.engine.State.Filter(sc, col.Key); ok && f.Active() {
			st = st.Foreground(colorHeaderActiveFg)
		}
		if i == m.colCursor {
			st = st.Underline(true)
		}
		hdr = append(hdr, st.Render(pad(label, w)))
	}
	return normalizePane(strings.Join(hdr, " "), m.width, 1)
}

func indentWidth(level int) int { return level * 2 }

func (m appModel) renderBody(height int) string {
	rows := m.snap.Rows
	if len(rows) == 0 {
		msg := "no records"
		if m.loadErr != "" {
			msg = lipgloss.NewStyle().Foreground(colorErrorFg).Render("load failed: " + m.loadErr)
		}
		return normalizePane(msg, m.width, height)
	}

	// Build the full line list, inserting a title header at the top of each
	// child block (the first child row rendered under an expanded parent).
	var lines []string
	cursorLine := 0
	prevCtx := map[int]string{}
	for i, row := range rows {
		if row.Level > 0 && prevCtx[row.Level] != row.Context {
			prevCtx[row.Level] = row.Context
			lvl, _ := m.engine.Hierarchy.Level(row.Level)
			title := lvl.Title
			if title == "" {
				title = lvl.RecordSet
			}
			lines = append(lines, styleMuted().Render(
				strings.Repeat(" ", indentWidth(row.Level))+title))
		}
		if i == m.cursor {
			cursorLine = len(lines)
		}
		lines = append(lines, m.renderRow(row, i == m.cursor))
	}

	// Keep the cursor's line inside the scroll window.
	scroll := m.scroll
	if cursorLine < scroll {
		scroll = cursorLine
	}
	if cursorLine >= scroll+height {
		scroll = cursorLine - height + 1
	}
	end := scroll + height
	if end > len(lines) {
		end = len(lines)
	}
	return normalizePane(strings.Join(lines[scroll:end], "\n"), m.width, height)
}

func (m appModel) renderRow(row grid.Row, isCursor bool) string {
	lvl, _ := m.engine.Hierarchy.Level(row.Level)
	sc := state.Scope{Level: row.Level, Context: row.Context}

	twisty := glyphLeaf()
	if row.HasChild {
		if row.Expanded {
			twisty = glyphTwistyExpanded()
		} else {
			twisty = glyphTwistyCollapsed()
		}
	}
	mark := glyphUnchecked()
	if row.Selected {
		mark = glyphChecked()
	}
	if !lvl.Multiple {
		mark = glyphRadioOff()
		if row.Selected {
			mark = glyphRadioOn()
		}
	}

	var parts []string
	parts = append(parts, strings.Repeat(" ", indentWidth(row.Level))+twisty+" "+mark)
	for _, col := range lvl.Columns {
		w := cells(m.widths.Width(sc, col.Key, defaultColWidth(col)))
		parts = append(parts, pad(row.Record.Display(col.Key), w))
	}
	line := strings.Join(parts, " ")
	if isCursor {
		return lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Render(
			padLine(line, m.width))
	}
	return line
}

func (m appModel) renderStatusLine() string {
	left := fmt.Sprintf("%d record(s)", m.snap.Visible)
	if n := len(m.engine.State.SelectedKeys(0)); n > 0 {
		left += fmt.Sprintf("  %d selected", n)
	}
	if m.status != "" {
		left += "  " + m.status
	}
	if m.loadErr != "" {
		left += "  " + lipgloss.NewStyle().Foreground(colorErrorFg).Render(m.loadErr)
	}
	right := styleMuted().Render("?:help q:quit")
	gap := m.width - xansi.StringWidth(left) - xansi.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	rule := styleMuted().Render(strings.Repeat(glyphHRule(), max(m.width, 1)))
	return rule + "\n" + left + strings.Repeat(" ", gap) + right
}

// pad fits s into exactly w cells, truncating with an ellipsis.
func pad(s string, w int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	sw := xansi.StringWidth(s)
	if sw > w {
		ell := glyphEllipsis()
		ew := xansi.StringWidth(ell)
		if w <= ew {
			return xansi.Cut(s, 0, w)
		}
		return xansi.Cut(s, 0, w-ew) + ell
	}
	return s + strings.Repeat(" ", w-sw)
}

func padLine(s string, w int) string {
	sw := xansi.StringWidth(s)
	if sw >= w {
		return s
	}
	return s + strings.Repeat(" ", w-sw)
}
