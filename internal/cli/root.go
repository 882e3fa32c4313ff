// Package cli defines the patchkit command tree. Commands parse flags and
// delegate to internal/actions; no stack logic lives here.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/runtime"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "patchkit",
		Short: "Patchkit maintains a stack of named, reorderable patches on top of a git branch",
		Long: `Patchkit maintains a stack of named, reorderable patches on top of a git branch.

Each patch is a named changeset backed by a real commit. Patches can be
pushed, popped, reordered, squashed, and hidden; every change to the stack
is recorded and can be undone.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress informational output")

	// Add subcommands
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newNewCmd())
	rootCmd.AddCommand(newSeriesCmd())
	rootCmd.AddCommand(newPushCmd())
	rootCmd.AddCommand(newPopCmd())
	rootCmd.AddCommand(newGotoCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newSpillCmd())
	rootCmd.AddCommand(newSquashCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newHideCmd())
	rootCmd.AddCommand(newUnhideCmd())
	rootCmd.AddCommand(newIDCmd())
	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newUndoCmd())

	return rootCmd
}

// run provides a runtime context to a command's execution function and
// closes the log sink when it returns.
func run(cmd *cobra.Command, fn func(ctx *runtime.Context) error) error {
	ctx, err := runtime.GetContext(cmd.Context())
	if err != nil {
		return err
	}
	defer ctx.Splog.Close()

	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		ctx.Splog.SetQuiet(true)
	}
	return fn(ctx)
}
