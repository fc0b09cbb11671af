package tui

import (
	"strings"

	"nestgrid/internal/docs"
)

func (m appModel) renderHelpModal() string {
	bodyW := modalBodyWidth(m.width)
	md, ok := docs.Get("keys")
	if !ok {
		md = "_no help available_"
	}
	body := renderMarkdown(md, bodyW)

	// Simple line scrolling; the modal shows a fixed-height window.
	lines := strings.Split(body, "\n")
	winH := m.height - 8
	if winH < 4 {
		winH = 4
	}
	top := m.helpScroll
	if top > len(lines)-1 {
		top = len(lines) - 1
	}
	if top < 0 {
		top = 0
	}
	end := top + winH
	if end > len(lines) {
		end = len(lines)
	}
	window := strings.Join(lines[top:end], "\n")
	window += "\n" + styleMuted().Render(" j/k:scroll esc:close")
	return renderModalBox(m.width, "Help", window)
}
