package actions

import (
	"fmt"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/git"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/tui"
)

// SpillOptions contains options for the spill command.
type SpillOptions struct {
	// Reset also resets the index, leaving the spilled changes only in the
	// worktree.
	Reset bool

	// Annotate adds a note to the stack log entry.
	Annotate string
}

// SpillAction empties the topmost patch: the patch commit is replaced by one
// carrying its parent's tree, while the index and worktree keep the changes.
// Useful for reselecting what belongs in the patch.
func SpillAction(ctx *runtime.Context, opts SpillOptions) error {
	clean, err := ctx.Repo.IsIndexClean()
	if err != nil {
		return err
	}
	if !clean {
		return fmt.Errorf("%w: the index has staged changes", errors.ErrWorktreeDirty)
	}

	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}
	top, ok := stk.Top()
	if !ok {
		return errors.ErrNoAppliedPatches
	}

	commitID, _ := stk.PatchCommit(top)
	patchCommit, err := ctx.Svc.Store.Commit(ctx.Context, commitID)
	if err != nil {
		return err
	}
	if patchCommit.NumParents() == 0 {
		return fmt.Errorf("patch %q has no parent", top)
	}
	parent, err := ctx.Svc.Store.Commit(ctx.Context, patchCommit.ParentHashes[0])
	if err != nil {
		return err
	}

	emptied, err := ctx.Svc.Store.CommitTree(ctx.Context, git.CommitSpec{
		Author:    patchCommit.Author,
		Committer: patchCommit.Committer,
		Message:   patchCommit.Message,
		Tree:      parent.TreeHash,
		Parents:   patchCommit.ParentHashes,
		Sign:      ctx.Config.ShouldSignCommits(),
	})
	if err != nil {
		return err
	}

	// The spilled changes stay in the index and worktree.
	engineOpts := ctx.Options()
	engineOpts.UseIndexAndWorktree = false

	reflogMsg := "spill " + top.String()
	if opts.Annotate != "" {
		reflogMsg += "\n\n" + opts.Annotate
	}

	t := engine.Begin(ctx.Svc, stk, engineOpts)
	if err := t.UpdatePatch(ctx.Context, top, emptied); err != nil {
		return err
	}
	if err := t.Execute(ctx.Context, reflogMsg); err != nil {
		return err
	}

	if opts.Reset {
		if err := ctx.Repo.ResetIndex(ctx.Context, stk.Head); err != nil {
			return err
		}
	}

	ctx.Splog.Info("spilled %s", tui.ColorCurrent(top.String()))
	return nil
}
