package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a patch stack for the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.InitAction(ctx)
			})
		},
	}
}
