package actions

import (
	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/git"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/tui"
)

// RefreshOptions contains options for the refresh command.
type RefreshOptions struct {
	Message string
}

// RefreshAction amends the topmost patch with the tracked changes sitting in
// the index and worktree. Untracked files are left alone.
func RefreshAction(ctx *runtime.Context, opts RefreshOptions) error {
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}
	top, ok := stk.Top()
	if !ok {
		return errors.ErrNoAppliedPatches
	}

	commitID, _ := stk.PatchCommit(top)
	topCommit, err := ctx.Svc.Store.Commit(ctx.Context, commitID)
	if err != nil {
		return err
	}

	tree, err := ctx.Repo.WorktreeTree(ctx.Context)
	if err != nil {
		return err
	}

	message := topCommit.Message
	if opts.Message != "" {
		message = opts.Message
	}
	if tree == topCommit.TreeHash && message == topCommit.Message {
		ctx.Splog.Info("nothing to refresh")
		return nil
	}

	committer, err := ctx.Svc.Store.DefaultSignature()
	if err != nil {
		return err
	}
	if ctx.Config.UseAuthorDate() {
		committer.When = topCommit.Author.When
	}

	newID, err := ctx.Svc.Store.CommitTree(ctx.Context, git.CommitSpec{
		Author:    topCommit.Author,
		Committer: committer,
		Message:   message,
		Tree:      tree,
		Parents:   topCommit.ParentHashes,
		Sign:      ctx.Config.ShouldSignCommits(),
	})
	if err != nil {
		return err
	}

	engineOpts := ctx.Options()
	engineOpts.UseIndexAndWorktree = false

	t := engine.Begin(ctx.Svc, stk, engineOpts)
	if err := t.UpdatePatch(ctx.Context, top, newID); err != nil {
		return err
	}
	if err := t.Execute(ctx.Context, "refresh "+top.String()); err != nil {
		return err
	}

	// The worktree already matches the new head; only the index needs to
	// catch up.
	if err := ctx.Repo.ResetIndex(ctx.Context, stk.Head); err != nil {
		return err
	}

	ctx.Splog.Info("refreshed %s", tui.ColorCurrent(top.String()))
	return nil
}
