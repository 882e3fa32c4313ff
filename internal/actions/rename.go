package actions

import (
	"fmt"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/internal/tui"
)

// RenameAction gives a patch a new name, keeping its commit and position.
func RenameAction(ctx *runtime.Context, oldName, newName string) error {
	to, err := stack.NewPatchName(newName)
	if err != nil {
		return err
	}
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}

	engineOpts := ctx.Options()
	engineOpts.UseIndexAndWorktree = false

	t := engine.Begin(ctx.Svc, stk, engineOpts)
	if err := t.RenamePatch(ctx.Context, stack.PatchName(oldName), to); err != nil {
		return err
	}
	msg := fmt.Sprintf("rename %s to %s", oldName, newName)
	if err := t.Execute(ctx.Context, msg); err != nil {
		return err
	}

	ctx.Splog.Info("renamed %s to %s", oldName, tui.ColorApplied(newName))
	return nil
}
