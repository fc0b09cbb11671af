package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"nestgrid/internal/grid"
	"nestgrid/internal/schema"
)

// newDumpCmd renders one full grid pass without the TUI: expand flags come
// from persisted state, output goes to stdout in the configured format.
func newDumpCmd(app *App) *cobra.Command {
	var expandAll bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Render the grid once and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cfg, cleanup, err := buildEngine(app, cmd.Flags())
			if err != nil {
				return err
			}
			defer cleanup()

			if expandAll {
				if err := expandAllRows(cmd.Context(), e); err != nil {
					return err
				}
			}
			snap, err := e.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			switch strings.ToLower(cfg.Output) {
			case "json":
				return dumpJSON(cmd.OutOrStdout(), e, snap)
			case "csv":
				return dumpCSV(cmd.OutOrStdout(), e, snap)
			default:
				return dumpTable(cmd.OutOrStdout(), e, snap)
			}
		},
	}

	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "Expand every expandable row before rendering")
	return cmd
}

// expandAllRows repeatedly refreshes and expands until no collapsed row with
// a child level remains. Each pass can only reveal one more depth, so the
// loop is bounded by the hierarchy depth.
func expandAllRows(ctx context.Context, e *grid.Engine) error {
	for i := 0; i < len(e.Hierarchy.Levels)+1; i++ {
		snap, err := e.Refresh(ctx)
		if err != nil {
			return err
		}
		changed := false
		for _, r := range snap.Rows {
			if r.HasChild && !r.Expanded {
				e.ToggleExpand(r.ID)
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
	return nil
}

func dumpTable(w io.Writer, e *grid.Engine, snap grid.Snapshot) error {
	lvl, _ := e.Hierarchy.Level(0)
	cols := lvl.Columns

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(cols)+1)
	header = append(header, "")
	for _, c := range cols {
		header = append(header, c.Label)
	}
	t.AppendHeader(header)

	for _, r := range snap.Rows {
		rowCols := columnsFor(e, r.Level)
		row := make(table.Row, 0, len(cols)+1)
		row = append(row, strings.Repeat("  ", r.Level)+rowMarker(r))
		for _, c := range rowCols {
			row = append(row, r.Record.Display(c.Key))
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d record(s))\n", snap.Visible)
	return nil
}

func rowMarker(r grid.Row) string {
	switch {
	case r.Expanded:
		return "-"
	case r.HasChild:
		return "+"
	default:
		return " "
	}
}

func columnsFor(e *grid.Engine, level int) []schema.Column {
	lvl, ok := e.Hierarchy.Level(level)
	if !ok {
		return nil
	}
	return lvl.Columns
}

type dumpRow struct {
	ID       string            `json:"id"`
	Level    int               `json:"level"`
	Context  string            `json:"context"`
	Key      string            `json:"key"`
	Expanded bool              `json:"expanded,omitempty"`
	Values   map[string]string `json:"values"`
}

func dumpJSON(w io.Writer, e *grid.Engine, snap grid.Snapshot) error {
	out := make([]dumpRow, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		values := map[string]string{}
		for _, c := range columnsFor(e, r.Level) {
			values[c.Key] = r.Record.Display(c.Key)
		}
		out = append(out, dumpRow{
			ID:       string(r.ID),
			Level:    r.Level,
			Context:  r.Context,
			Key:      r.Key,
			Expanded: r.Expanded,
			Values:   values,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func dumpCSV(w io.Writer, e *grid.Engine, snap grid.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "level", "key", "column", "value"}); err != nil {
		return err
	}
	for _, r := range snap.Rows {
		for _, c := range columnsFor(e, r.Level) {
			rec := []string{string(r.ID), fmt.Sprintf("%d", r.Level), r.Key, c.Key, r.Record.Display(c.Key)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
