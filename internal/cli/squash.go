package cli

import (
	"github.com/spf13/cobra"

	"patchkit.dev/patchkit/internal/actions"
	"patchkit.dev/patchkit/internal/runtime"
)

// newSquashCmd creates the squash command
func newSquashCmd() *cobra.Command {
	var (
		message      string
		name         string
		noEdit       bool
		saveTemplate string
	)

	cmd := &cobra.Command{
		Use:   "squash [name...]",
		Short: "Combine two or more patches into one",
		Long: `Combine two or more patches into one.

The patches are merged in the order given, not in stack order. When the
selected patches are by different authors, everyone but the acting user is
credited with a Co-authored-by trailer. With no names, opens an interactive
multi-select over the visible patches.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				return actions.SquashAction(ctx, actions.SquashOptions{
					Patches:          args,
					Name:             name,
					Message:          message,
					NoEdit:           noEdit,
					SaveTemplatePath: saveTemplate,
				})
			})
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&name, "name", "n", "", "Name for the squashed patch; defaults to a name derived from the message")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Use the given message instead of opening an editor")
	cmd.Flags().BoolVar(&noEdit, "no-edit", false, "Do not open an editor; use the composed default message")
	cmd.Flags().StringVar(&saveTemplate, "save-template", "", "Write the message template to the given file and exit without squashing")

	return cmd
}
