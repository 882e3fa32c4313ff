package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newLogCmd creates the log command
func newLogCmd() *cobra.Command {
	var number int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the stack's recorded states, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.LogAction(ctx, actions.LogOptions{Number: number})
			})
		},
	}

	// Add flags
	cmd.Flags().IntVarP(&number, "number", "n", 20, "Limit the number of entries shown")

	return cmd
}
