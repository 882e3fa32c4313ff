package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newRefreshCmd creates the refresh command
func newRefreshCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Amend the topmost patch with the changes in the index and worktree",
		Long: `Amend the topmost patch with the changes in the index and worktree.

Tracked changes are folded into the patch's commit; untracked files are left
alone. The patch message is kept unless --message is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.RefreshAction(ctx, actions.RefreshOptions{Message: message})
			})
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&message, "message", "m", "", "Replace the patch message")

	return cmd
}
