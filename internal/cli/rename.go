package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newRenameCmd creates the rename command
func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename old-name new-name",
		Short: "Rename a patch, keeping its commit and position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.RenameAction(ctx, args[0], args[1])
			})
		},
	}
}
