package actions

import (
	"fmt"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
)

// DeleteOptions contains options for the delete command.
type DeleteOptions struct {
	Names []string
	Force bool
}

// DeleteAction removes patches from the stack for good. Applied patches
// above a deleted one are popped and pushed back, so the rest of the stack
// keeps its shape.
func DeleteAction(ctx *runtime.Context, opts DeleteOptions) error {
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

	prompt := fmt.Sprintf("Delete %d patch(es)? Their commits stay reachable only through the stack log.", len(names))
	if err := confirm(prompt, opts.Force); err != nil {
		return err
	}

	engineOpts := ctx.Options()
	engineOpts.AllowConflicts = true

	selected := nameSet(names)
	t := engine.Begin(ctx.Svc, stk, engineOpts)
	displaced, err := t.DeletePatches(ctx.Context, func(name stack.PatchName) bool { return selected[name] })
	if err != nil {
		return err
	}
	pushErr := t.PushPatches(ctx.Context, displaced, false)
	return finishPushes(ctx, t, "delete "+joinNames(names), pushErr)
}
