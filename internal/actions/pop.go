package actions

import (
	"fmt"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
)

// PopOptions contains options for the pop command.
type PopOptions struct {
	All    bool
	Number int
	Names  []string
}

// PopAction unapplies patches. Popping a buried patch pops everything above
// it too; patches popped only as collateral are pushed back afterwards, so
// the requested ones end up unapplied and the rest stay applied.
func PopAction(ctx *runtime.Context, opts PopOptions) error {
	if err := requireCleanWorktree(ctx); err != nil {
		return err
	}
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}
	if len(stk.Applied) == 0 {
		return errors.ErrNoAppliedPatches
	}

	var names []stack.PatchName
	switch {
	case len(opts.Names) > 0:
		if names, err = resolvePatchNames(stk, opts.Names); err != nil {
			return err
		}
		for _, name := range names {
			if !stk.IsApplied(name) {
				return errors.NewInvalidSelectionError("patch is not applied", name.String())
			}
		}
	case opts.All:
		names = append(names, stk.Applied...)
	default:
		count := opts.Number
		if count <= 0 {
			count = 1
		}
		if count > len(stk.Applied) {
			count = len(stk.Applied)
		}
		names = append(names, stk.Applied[len(stk.Applied)-count:]...)
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: no patches to pop", errors.ErrInvalidSelection)
	}

	engineOpts := ctx.Options()
	engineOpts.AllowConflicts = true

	selected := nameSet(names)
	t := engine.Begin(ctx.Svc, stk, engineOpts)
	popped, err := t.PopPatches(ctx.Context, func(name stack.PatchName) bool { return selected[name] })
	if err != nil {
		return err
	}

	// Patches that were above a requested one get pushed back.
	var restore []stack.PatchName
	for _, name := range popped {
		if !selected[name] {
			restore = append(restore, name)
		}
	}
	pushErr := t.PushPatches(ctx.Context, restore, false)
	return finishPushes(ctx, t, "pop "+joinNames(names), pushErr)
}
