package grid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var debugEnabled = strings.TrimSpace(os.Getenv("NESTGRID_DEBUG")) != ""

// debugLogf appends a line to the debug log when NESTGRID_DEBUG is set.
// Stdout belongs to the TUI, so diagnostics go to a file
// (NESTGRID_DEBUG_LOG, default under the temp dir).
func debugLogf(format string, args ...any) {
	if !debugEnabled {
		return
	}
	path := strings.TrimSpace(os.Getenv("NESTGRID_DEBUG_LOG"))
	if path == "" {
		path = filepath.Join(os.TempDir(), "nestgrid-debug.log")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, time.Now().Format("15:04:05.000")+" "+format+"\n", args...)
}
