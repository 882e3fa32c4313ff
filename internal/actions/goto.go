package actions

import (
	"slices"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/internal/tui"
)

// GotoOptions contains options for the goto command.
type GotoOptions struct {
	Name string
}

// GotoAction sets the stack top to the named patch, popping or pushing
// whatever lies between. With no name it opens an interactive picker.
func GotoAction(ctx *runtime.Context, opts GotoOptions) error {
	if err := requireCleanWorktree(ctx); err != nil {
		return err
	}
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}

	name := stack.PatchName(opts.Name)
	if name == "" {
		selected, err := tui.PromptGotoPatch(stk)
		if err != nil {
			return err
		}
		name = stack.PatchName(selected)
	}
	if !stk.Contains(name) {
		return errors.NewPatchNotFoundError(name.String())
	}
	if stk.IsHidden(name) {
		return errors.NewInvalidSelectionError("cannot go to a hidden patch", name.String())
	}

	engineOpts := ctx.Options()
	engineOpts.AllowConflicts = true
	t := engine.Begin(ctx.Svc, stk, engineOpts)

	if stk.IsApplied(name) {
		if top, _ := stk.Top(); top == name {
			ctx.Splog.Info("already at %s", tui.ColorCurrent(name.String()))
			return nil
		}
		above := nameSet(stk.Applied[slices.Index(stk.Applied, name)+1:])
		if _, err := t.PopPatches(ctx.Context, func(n stack.PatchName) bool { return above[n] }); err != nil {
			return err
		}
		if err := t.Execute(ctx.Context, "goto "+name.String()); err != nil {
			return err
		}
		ctx.Splog.Info("now at %s", tui.ColorCurrent(name.String()))
		return nil
	}

	toPush := stk.Unapplied[:slices.Index(stk.Unapplied, name)+1]
	pushErr := t.PushPatches(ctx.Context, toPush, false)
	if err := finishPushes(ctx, t, "goto "+name.String(), pushErr); err != nil {
		return err
	}
	ctx.Splog.Info("now at %s", tui.ColorCurrent(name.String()))
	return nil
}
