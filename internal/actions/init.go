package actions

import (
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/runtime"
)

// InitAction creates the stack state ref for the current branch.
func InitAction(ctx *runtime.Context) error {
	branch, err := ctx.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	if ctx.Repo.StackExists(branch) {
		return errors.ErrAlreadyInitialized
	}

	if _, err := ctx.Repo.InitStack(ctx.Context, branch); err != nil {
		return err
	}
	ctx.Splog.Info("initialized patch stack for branch %s", branch)
	return nil
}
