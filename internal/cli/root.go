package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"nestgrid/internal/tui"
)

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "nestgrid",
		Short:        "Hierarchical record grid (TUI + scriptable dump)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Interactive grid over the built-in sample data
  nestgrid --demo

  # Interactive grid over a configured backend
  nestgrid --config ./nestgrid.yaml

  # Non-interactive render for scripts
  nestgrid dump --output json
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) > 0 {
				return cmd.Help()
			}
			return runTUI(app, cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.CfgFile, "config", "", "Path to config file (default: walk up for nestgrid.yaml)")
	pf.BoolVar(&app.Demo, "demo", false, "Use the built-in sample dataset (in-memory)")
	pf.String("record", "", "Root record id bound to $root in base conditions")
	pf.String("state-path", "", "Where scoped grid state persists")
	pf.String("output", "", "dump format (table|json|csv)")
	pf.Bool("verbose", false, "Verbose diagnostics")

	cmd.AddCommand(newDumpCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newTopicsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func runTUI(app *App, cmd *cobra.Command) error {
	e, cfg, cleanup, err := buildEngine(app, cmd.Flags())
	if err != nil {
		return err
	}
	defer cleanup()
	return tui.Run(e, cfg.StatePath)
}
