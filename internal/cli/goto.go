package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newGotoCmd creates the goto command
func newGotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goto [name]",
		Short: "Push or pop patches until the named patch is on top",
		Long: `Push or pop patches until the named patch is on top.

With no name, opens an interactive picker over the visible patches.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.GotoAction(ctx, actions.GotoOptions{Name: name})
			})
		},
	}
}
