package actions

import (
	"fmt"

	"patchkit.dev/patchkit/internal/editor"
	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/internal/tui"
)

// NewOptions contains options for the new command.
type NewOptions struct {
	Name    string
	Message string
	NoEdit  bool
}

// NewAction appends an empty patch on top of the stack. The patch commit
// carries the head tree, so the worktree is untouched.
func NewAction(ctx *runtime.Context, opts NewOptions) error {
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}

	head, err := ctx.Svc.Store.Commit(ctx.Context, stk.Head)
	if err != nil {
		return err
	}
	sig, err := ctx.Svc.Store.DefaultSignature()
	if err != nil {
		return err
	}

	message := opts.Message
	if message == "" && opts.NoEdit {
		// Without an editor session there is nothing else to say.
		message = opts.Name
	}

	ed := &editor.Editor{Interactive: opts.Message == "" && !opts.NoEdit && tui.IsTTY()}
	outcome, err := ed.EditPatch(ctx.Context, ctx.Svc.Store, engine.EditRequest{
		Name:      stack.PatchName(opts.Name),
		Author:    sig,
		Committer: sig,
		Message:   message,
		Tree:      head.TreeHash,
		Parent:    stk.Head,
		Sign:      ctx.Config.ShouldSignCommits(),
		TakenName: stk.Contains,
	})
	if err != nil {
		return err
	}
	edited, ok := outcome.(engine.Edited)
	if !ok {
		return fmt.Errorf("edit step did not produce a commit")
	}

	engineOpts := ctx.Options()
	engineOpts.UseIndexAndWorktree = false

	t := engine.Begin(ctx.Svc, stk, engineOpts)
	if err := t.NewApplied(ctx.Context, edited.Name, edited.CommitID); err != nil {
		return err
	}
	if err := t.Execute(ctx.Context, "new "+edited.Name.String()); err != nil {
		return err
	}

	ctx.Splog.Info("created patch %s", tui.ColorCurrent(edited.Name.String()))
	return nil
}
