package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newIDCmd creates the id command
func newIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id [name]",
		Short: "Print the commit id of a patch",
		Long:  "Print the commit id of a patch, or of the topmost patch when no name is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.IDAction(ctx, name)
			})
		},
	}
}
