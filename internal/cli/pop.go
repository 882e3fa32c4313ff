package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newPopCmd creates the pop command
func newPopCmd() *cobra.Command {
	var (
		all    bool
		number int
	)

	cmd := &cobra.Command{
		Use:   "pop [name...]",
		Short: "Unapply patches from the top of the stack",
		Long: `Unapply patches from the top of the stack.

Popping a buried patch pops everything above it too; patches popped only as
collateral are pushed back afterwards, so only the requested patches end up
unapplied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.PopAction(ctx, actions.PopOptions{
					All:    all,
					Number: number,
					Names:  args,
				})
			})
		},
	}

	// Add flags
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Pop all applied patches")
	cmd.Flags().IntVarP(&number, "number", "n", 1, "Pop the given number of patches")

	return cmd
}
