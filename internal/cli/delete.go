package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newDeleteCmd creates the delete command
func newDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete name...",
		Short: "Delete patches from the stack",
		Long: `Delete patches from the stack.

Deleting an applied patch pops everything above it first; the displaced
patches are pushed back so the rest of the stack keeps its shape. The
deleted patches' commits stay reachable only through the stack log.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.DeleteAction(ctx, actions.DeleteOptions{
					Names: args,
					Force: force,
				})
			})
		},
	}

	// Add flags
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without asking for confirmation")

	return cmd
}
