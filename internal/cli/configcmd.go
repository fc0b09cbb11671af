package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"nestgrid/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(newConfigCheckCmd(app))
	return cmd
}

// newConfigCheckCmd loads and validates config, then prints the resolved
// values so precedence problems (flag vs env vs file) are easy to see.
func newConfigCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the resolved configuration and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.CfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if app.Demo {
				cfg.Gateway.Kind = "demo"
			}
			if cfg.Gateway.Kind != "demo" {
				if _, err := cfg.ToHierarchy(); err != nil {
					return fmt.Errorf("hierarchy: %w", err)
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
}
