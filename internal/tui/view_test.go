package tui

import (
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestPad_TruncatesWithConfiguredEllipsis(t *testing.T) {
	setGlyphs(glyphSetUnicode)
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })

	if got := pad("alphabet", 5); got != "alph…" {
		t.Fatalf("unicode truncation: got %q", got)
	}

	setGlyphs(glyphSetASCII)
	got := pad("alphabet", 5)
	if got != "al..." {
		t.Fatalf("ascii truncation: got %q", got)
	}
	if w := xansi.StringWidth(got); w != 5 {
		t.Fatalf("truncated cell overflows: width %d", w)
	}

	// Width at or below the ellipsis is a hard cut.
	if got := pad("alphabet", 2); got != "al" {
		t.Fatalf("narrow cell: got %q", got)
	}
}

func TestPad_FillsShortValues(t *testing.T) {
	if got := pad("ok", 5); got != "ok   " {
		t.Fatalf("got %q", got)
	}
}
