package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newUndoCmd creates the undo command
func newUndoCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Reset the stack to a previously recorded state",
		Long: `Reset the stack to a previously recorded state.

Walks back the given number of entries in the stack log and restores that
state, including the branch head and worktree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.UndoAction(ctx, actions.UndoOptions{Steps: steps})
			})
		},
	}

	// Add flags
	cmd.Flags().IntVarP(&steps, "number", "n", 1, "Undo the given number of stack log entries")

	return cmd
}
