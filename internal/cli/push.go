package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newPushCmd creates the push command
func newPushCmd() *cobra.Command {
	var (
		all    bool
		merged bool
		number int
	)

	cmd := &cobra.Command{
		Use:   "push [name...]",
		Short: "Apply unapplied patches on top of the stack",
		Long: `Apply unapplied patches on top of the stack.

Each patch's change is replayed onto the current head. A conflict stops the
batch: the conflicting patch stays applied with conflict markers checked out
for manual resolution, and the remaining patches are not pushed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.PushAction(ctx, actions.PushOptions{
					All:    all,
					Number: number,
					Names:  args,
					Merged: merged,
				})
			})
		},
	}

	// Add flags
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Push all unapplied patches")
	cmd.Flags().IntVarP(&number, "number", "n", 1, "Push the given number of patches")
	cmd.Flags().BoolVar(&merged, "merged", false, "Check whether patches are already merged into the base and push them empty if so")

	return cmd
}
