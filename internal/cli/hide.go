package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newHideCmd creates the hide command
func newHideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hide name...",
		Short: "Hide patches from the series listing",
		Long: `Hide patches from the series listing.

Applied patches are popped first. Hidden patches keep their commits and can
be brought back with unhide.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.HideAction(ctx, actions.HideOptions{Names: args})
			})
		},
	}
}

// newUnhideCmd creates the unhide command
func newUnhideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unhide name...",
		Short: "Move hidden patches back to the unapplied group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.UnhideAction(ctx, actions.HideOptions{Names: args})
			})
		},
	}
}
