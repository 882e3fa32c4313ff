package actions

import (
	"fmt"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
)

// PushOptions contains options for the push command.
type PushOptions struct {
	All    bool
	Number int
	Names  []string
	Merged bool
}

// PushAction applies unapplied patches on top of the stack, replaying each
// one onto the current head. A conflict stops the batch but keeps what was
// already pushed, including the conflicted patch.
func PushAction(ctx *runtime.Context, opts PushOptions) error {
	if err := requireCleanWorktree(ctx); err != nil {
		return err
	}
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}

	var names []stack.PatchName
	switch {
	case len(opts.Names) > 0:
		if names, err = resolvePatchNames(stk, opts.Names); err != nil {
			return err
		}
	case opts.All:
		names = append(names, stk.Unapplied...)
	default:
		count := opts.Number
		if count <= 0 {
			count = 1
		}
		if count > len(stk.Unapplied) {
			count = len(stk.Unapplied)
		}
		names = append(names, stk.Unapplied[:count]...)
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: no patches to push", errors.ErrInvalidSelection)
	}

	engineOpts := ctx.Options()
	engineOpts.AllowConflicts = true

	t := engine.Begin(ctx.Svc, stk, engineOpts)
	pushErr := t.PushPatches(ctx.Context, names, opts.Merged)
	return finishPushes(ctx, t, "push "+joinNames(names), pushErr)
}
