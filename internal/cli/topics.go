package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nestgrid/internal/docs"
)

// newTopicsCmd prints embedded help topics to stdout, for reading outside
// the TUI (`nestgrid topics keys`).
func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics [topic]",
		Short: "Show help topics (keys, config)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, t := range docs.Topics() {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			}
			body, ok := docs.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown topic %q (try: %v)", args[0], docs.Topics())
			}
			fmt.Fprintln(cmd.OutOrStdout(), body)
			return nil
		},
	}
}
