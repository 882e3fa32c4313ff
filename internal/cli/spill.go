package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newSpillCmd creates the spill command
func newSpillCmd() *cobra.Command {
	var (
		annotate string
		reset    bool
	)

	cmd := &cobra.Command{
		Use:   "spill",
		Short: "Empty the topmost patch, leaving its changes in the index and worktree",
		Long: `Empty the topmost patch, leaving its changes in the index and worktree.

The patch's commit is replaced by one carrying its parent's tree. Useful for
reselecting which changes belong in the patch before refreshing it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.SpillAction(ctx, actions.SpillOptions{
					Reset:    reset,
					Annotate: annotate,
				})
			})
		},
	}

	// Add flags
	cmd.Flags().BoolVarP(&reset, "reset", "r", false, "Also reset the index, keeping the spilled changes only in the worktree")
	cmd.Flags().StringVar(&annotate, "annotate", "", "Annotate the stack log entry with a note")

	return cmd
}
