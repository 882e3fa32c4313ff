package actions

import (
	"fmt"
	"strings"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/runtime"
)

// UndoOptions contains options for the undo command.
type UndoOptions struct {
	Steps int
}

// UndoAction resets the stack to a previously recorded state, walking back
// the given number of entries in the stack log. The worktree follows.
func UndoAction(ctx *runtime.Context, opts UndoOptions) error {
	if err := requireCleanWorktree(ctx); err != nil {
		return err
	}
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}

	steps := opts.Steps
	if steps <= 0 {
		steps = 1
	}

	entries, err := ctx.Repo.StateLog(ctx.Context, stk.Branch, steps+1)
	if err != nil {
		return err
	}
	if len(entries) <= steps {
		return errors.ErrNoUndoState
	}
	target := entries[steps]

	t := engine.Begin(ctx.Svc, stk, ctx.Options())
	if err := t.ResetToState(ctx.Context, target.State); err != nil {
		return err
	}
	if err := t.Execute(ctx.Context, fmt.Sprintf("undo %d", steps)); err != nil {
		return err
	}

	subject, _, _ := strings.Cut(entries[steps-1].Message, "\n")
	ctx.Splog.Info("restored the state before %q", subject)
	return nil
}
