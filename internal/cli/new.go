package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newNewCmd creates the new command
func newNewCmd() *cobra.Command {
	var (
		message string
		noEdit  bool
	)

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a new empty patch on top of the stack",
		Long: `Create a new empty patch on top of the stack.

The patch carries the current head tree, so the worktree is untouched. If no
name is given, one is derived from the commit message. Without --message an
editor session composes the message interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.NewAction(ctx, actions.NewOptions{
					Name:    name,
					Message: message,
					NoEdit:  noEdit,
				})
			})
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&message, "message", "m", "", "Use the given message instead of opening an editor")
	cmd.Flags().BoolVar(&noEdit, "no-edit", false, "Do not open an editor; use the patch name as the message")

	return cmd
}
