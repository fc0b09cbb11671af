package tui

import "testing"

func TestMarkdownStyle_RespectsTUITheme(t *testing.T) {
	t.Setenv("NESTGRID_TUI_DARKBG", "")

	t.Setenv("NESTGRID_TUI_THEME", "light")
	if got := markdownStyle(); got != "light" {
		t.Fatalf("expected light; got %q", got)
	}

	t.Setenv("NESTGRID_TUI_THEME", "dark")
	if got := markdownStyle(); got != "dark" {
		t.Fatalf("expected dark; got %q", got)
	}
}

func TestMarkdownStyle_DarkBGFlagWins(t *testing.T) {
	t.Setenv("NESTGRID_TUI_THEME", "")

	t.Setenv("NESTGRID_TUI_DARKBG", "true")
	if got := markdownStyle(); got != "dark" {
		t.Fatalf("expected dark; got %q", got)
	}

	t.Setenv("NESTGRID_TUI_DARKBG", "false")
	if got := markdownStyle(); got != "light" {
		t.Fatalf("expected light; got %q", got)
	}
}
