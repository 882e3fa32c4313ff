package actions

import (
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
)

// IDAction prints the commit id of a patch, or of the topmost patch when no
// name is given.
func IDAction(ctx *runtime.Context, name string) error {
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}

	patch := stack.PatchName(name)
	if patch == "" {
		top, ok := stk.Top()
		if !ok {
			return errors.ErrNoAppliedPatches
		}
		patch = top
	}

	id, ok := stk.PatchCommit(patch)
	if !ok {
		return errors.NewPatchNotFoundError(patch.String())
	}
	ctx.Splog.Page(id.String() + "\n")
	return nil
}
