package actions

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"patchkit.dev/patchkit/internal/editor"
	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/internal/tui"
)

// SquashOptions contains options for the squash command.
type SquashOptions struct {
	Patches          []string
	Name             string
	Message          string
	NoEdit           bool
	SaveTemplatePath string
}

// SquashAction combines the selected patches into one. Selection order is
// kept: the patches are squashed in the order given, not in stack order.
func SquashAction(ctx *runtime.Context, opts SquashOptions) error {
	if err := requireCleanWorktree(ctx); err != nil {
		return err
	}
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}

	args := opts.Patches
	if len(args) == 0 {
		if !tui.IsTTY() {
			return fmt.Errorf("%w: no patches named", errors.ErrInvalidSelection)
		}
		visible := make([]string, 0, len(stk.Applied)+len(stk.Unapplied))
		for _, name := range stk.Applied {
			visible = append(visible, name.String())
		}
		for _, name := range stk.Unapplied {
			visible = append(visible, name.String())
		}
		prompt := &survey.MultiSelect{
			Message: "Select patches to squash (stack order, bottom first):",
			Options: visible,
		}
		if err := survey.AskOne(prompt, &args, survey.WithValidator(survey.MinItems(2))); err != nil {
			return err
		}
	}

	names, err := resolvePatchNames(stk, args)
	if err != nil {
		return err
	}

	interactive := opts.Message == "" && !opts.NoEdit && tui.IsTTY() && opts.SaveTemplatePath == ""
	_, err = engine.Squash(ctx.Context, ctx.Svc, stk, ctx.Options(), engine.SquashRequest{
		Patches:          names,
		Name:             stack.PatchName(opts.Name),
		Message:          opts.Message,
		Editor:           &editor.Editor{Interactive: interactive},
		SaveTemplatePath: opts.SaveTemplatePath,
	})
	return err
}
