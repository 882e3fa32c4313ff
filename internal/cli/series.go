package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newSeriesCmd creates the series command
func newSeriesCmd() *cobra.Command {
	var (
		all         bool
		description bool
	)

	cmd := &cobra.Command{
		Use:   "series",
		Short: "List the patches in the stack",
		Long: `List the patches in the stack.

Applied patches are marked '+', the topmost '>', unapplied '-', and hidden
'!'. Hidden patches only appear with --all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.SeriesAction(ctx, actions.SeriesOptions{
					Description: description,
					All:         all,
				})
			})
		},
	}

	// Add flags
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden patches")
	cmd.Flags().BoolVarP(&description, "description", "d", false, "Show the first line of each patch's message")

	return cmd
}
