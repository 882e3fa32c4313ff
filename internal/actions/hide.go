package actions

import (
	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
)

// HideOptions contains options for the hide and unhide commands.
type HideOptions struct {
	Names []string
}

// HideAction moves patches to the hidden group. Applied patches are popped
// first; patches popped only as collateral are pushed back.
func HideAction(ctx *runtime.Context, opts HideOptions) error {
	if err := requireCleanWorktree(ctx); err != nil {
		return err
	}
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}
	names, err := resolvePatchNames(stk, opts.Names)
	if err != nil {
		return err
	}

	engineOpts := ctx.Options()
	engineOpts.AllowConflicts = true
	selected := nameSet(names)

	t := engine.Begin(ctx.Svc, stk, engineOpts)

	needsPop := false
	for _, name := range names {
		if stk.IsApplied(name) {
			needsPop = true
			break
		}
	}
	if needsPop {
		popped, err := t.PopPatches(ctx.Context, func(name stack.PatchName) bool { return selected[name] })
		if err != nil {
			return err
		}
		var restore []stack.PatchName
		for _, name := range popped {
			if !selected[name] {
				restore = append(restore, name)
			}
		}
		if err := t.PushPatches(ctx.Context, restore, false); err != nil {
			return finishPushes(ctx, t, "hide "+joinNames(names), err)
		}
	}

	if err := t.HidePatches(ctx.Context, names); err != nil {
		return err
	}
	return t.Execute(ctx.Context, "hide "+joinNames(names))
}

// UnhideAction moves hidden patches back to the end of the unapplied group.
func UnhideAction(ctx *runtime.Context, opts HideOptions) error {
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}
	names, err := resolvePatchNames(stk, opts.Names)
	if err != nil {
		return err
	}

	// Group membership changes only; the head commit stays put.
	engineOpts := ctx.Options()
	engineOpts.UseIndexAndWorktree = false

	t := engine.Begin(ctx.Svc, stk, engineOpts)
	if err := t.UnhidePatches(ctx.Context, names); err != nil {
		return err
	}
	return t.Execute(ctx.Context, "unhide "+joinNames(names))
}
