package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"nestgrid/internal/grid"
)

// Run starts the interactive grid over an engine whose state has already
// been loaded. statePath may be empty to disable persistence.
func Run(e *grid.Engine, statePath string) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()

	m := newAppModel(e, statePath)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
