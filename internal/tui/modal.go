package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

// modalBodyWidth is the usable content width inside a modal box for a given
// terminal width.
func modalBodyWidth(termWidth int) int {
	w := termWidth - 12
	if w > 64 {
		w = 64
	}
	if w < 20 {
		w = 20
	}
	return w
}

// renderModalBox draws a titled, bordered box around content. Content lines
// are normalized to the body width so the frame stays rectangular.
func renderModalBox(termWidth int, title, content string) string {
	bodyW := modalBodyWidth(termWidth)

	header := lipgloss.NewStyle().
		Background(colorModalHeaderBg).
		Foreground(colorModalHeaderFg).
		Bold(true).
		Render(padLine(" "+title, bodyW))

	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = padLine(lines[i], bodyW)
	}
	body := lipgloss.NewStyle().
		Background(colorModalSurfaceBg).
		Foreground(colorModalSurfaceFg).
		Render(strings.Join(lines, "\n"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Render(header + "\n" + body)
}

func (m appModel) overlayModal(base string) string {
	var box string
	switch m.modal {
	case modalFilter:
		box = m.renderFilterModal()
	case modalEdit:
		box = m.renderEditModal()
	case modalOptions:
		box = m.renderOptionsModal()
	case modalLookup:
		box = m.renderLookupModal()
	case modalSearch:
		box = renderModalBox(m.width, "Search",
			renderInputLine(modalBodyWidth(m.width), m.searchInput.View())+"\n"+
				styleMuted().Render(" enter:apply esc:cancel ctrl+u:clear"))
	case modalError:
		box = renderModalBox(m.width, "Save failed",
			lipgloss.NewStyle().Foreground(colorErrorFg).Render(" "+m.errText)+"\n"+
				styleMuted().Render(" press any key"))
	case modalHelp:
		box = m.renderHelpModal()
	default:
		return base
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func opLabel(op state.Op) string {
	switch op {
	case state.OpContains:
		return "contains"
	case state.OpEquals:
		return "equals"
	case state.OpStarts:
		return "starts with"
	case state.OpEnds:
		return "ends with"
	case state.OpGT:
		return "greater than"
	case state.OpLT:
		return "less than"
	case state.OpGTE:
		return "at least"
	case state.OpLTE:
		return "at most"
	}
	return string(op)
}

func (m appModel) renderFilterModal() string {
	bodyW := modalBodyWidth(m.width)
	var b strings.Builder
	switch {
	case m.filterLookup != nil:
		b.WriteString(renderInputLine(bodyW, m.filterInput.View()))
		b.WriteString("\n")
		for i, hit := range m.filterHits {
			line := " " + hit.Display
			if i == m.filterHitIdx {
				line = lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString(styleMuted().Render(" up/down:pick enter:apply ctrl+d:clear esc:cancel"))
	case m.filterKind == schema.KindChoice || m.filterKind == schema.KindBoolean:
		if len(m.filterOptions) == 0 {
			if m.filterOptsReady {
				b.WriteString(styleMuted().Render(" no options"))
			} else {
				b.WriteString(styleMuted().Render(" loading" + glyphEllipsis()))
			}
			b.WriteString("\n")
		}
		for i, opt := range m.filterOptions {
			mark := glyphRadioOff()
			if i == m.filterOptIdx {
				mark = glyphRadioOn()
			}
			line := " " + mark + " " + opt.Label
			if i == m.filterOptIdx {
				line = lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString(styleMuted().Render(" enter:apply ctrl+d:clear esc:cancel"))
	default:
		fmt.Fprintf(&b, " %s %s\n", glyphRadioOn(), opLabel(m.filterOp))
		b.WriteString(renderInputLine(bodyW, m.filterInput.View()))
		b.WriteString("\n")
		b.WriteString(styleMuted().Render(" tab:operator enter:apply ctrl+d:clear esc:cancel"))
	}
	return renderModalBox(m.width, "Filter: "+m.filterCol, b.String())
}

func (m appModel) renderEditModal() string {
	bodyW := modalBodyWidth(m.width)
	ec := m.engine.Session.Context()
	var b strings.Builder
	b.WriteString(renderInputLine(bodyW, m.editInput.View()))
	b.WriteString("\n")
	if m.editErr != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(colorErrorFg).Render(" " + m.editErr))
		b.WriteString("\n")
	}
	b.WriteString(styleMuted().Render(" enter:save esc:cancel"))
	return renderModalBox(m.width, "Edit: "+ec.Column, b.String())
}

func (m appModel) renderOptionsModal() string {
	ec := m.engine.Session.Context()
	var b strings.Builder
	if len(m.editOptions) == 0 {
		if m.editOptsReady {
			b.WriteString(styleMuted().Render(" no options"))
		} else {
			b.WriteString(styleMuted().Render(" loading" + glyphEllipsis()))
		}
		b.WriteString("\n")
	}
	for i, opt := range m.editOptions {
		mark := glyphRadioOff()
		if i == m.editOptIdx {
			mark = glyphRadioOn()
		}
		line := " " + mark + " " + opt.Label
		if i == m.editOptIdx {
			line = lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.editErr != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(colorErrorFg).Render(" " + m.editErr))
		b.WriteString("\n")
	}
	b.WriteString(styleMuted().Render(" enter:save esc:cancel"))
	return renderModalBox(m.width, "Edit: "+ec.Column, b.String())
}

func (m appModel) renderLookupModal() string {
	bodyW := modalBodyWidth(m.width)
	ec := m.engine.Session.Context()
	var b strings.Builder
	b.WriteString(renderInputLine(bodyW, m.lookupInput.View()))
	b.WriteString("\n")
	if len(m.lookupHits) == 0 {
		b.WriteString(styleMuted().Render(" no matches"))
		b.WriteString("\n")
	}
	for i, hit := range m.lookupHits {
		line := " " + hit.Display
		if i == m.lookupCursor {
			line = lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(styleMuted().Render(" up/down:pick enter:save esc:cancel"))
	return renderModalBox(m.width, "Lookup: "+ec.Column, b.String())
}

// normalizePane forces s to exactly width columns (ANSI-aware) and height
// lines. Keeps joined panes stable under lipgloss composition.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			ell := glyphEllipsis()
			ew := xansi.StringWidth(ell)
			if width <= ew {
				ln = xansi.Cut(ln, 0, width)
			} else {
				ln = xansi.Cut(ln, 0, width-ew) + ell
			}
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

// renderInputLine keeps a textinput view to one visual line inside a modal
// and terminates styling so backgrounds never bleed past the box.
func renderInputLine(bodyW int, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")
	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}
