package actions

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/internal/tui"
)

// requireCleanWorktree rejects stack-moving operations while uncommitted
// changes exist; the head checkout would clobber them.
func requireCleanWorktree(ctx *runtime.Context) error {
	clean, err := ctx.Repo.IsClean()
	if err != nil {
		return err
	}
	if !clean {
		return fmt.Errorf("%w; commit or stash them first", errors.ErrWorktreeDirty)
	}
	return nil
}

// resolvePatchNames checks that every argument names a patch in the stack.
func resolvePatchNames(stk *stack.Stack, args []string) ([]stack.PatchName, error) {
	names := make([]stack.PatchName, 0, len(args))
	for _, arg := range args {
		name := stack.PatchName(arg)
		if !stk.Contains(name) {
			return nil, errors.NewPatchNotFoundError(arg)
		}
		names = append(names, name)
	}
	return names, nil
}

// nameSet builds a membership predicate over names.
func nameSet(names []stack.PatchName) map[stack.PatchName]bool {
	set := make(map[stack.PatchName]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

// joinNames renders a patch name list for reflog messages.
func joinNames(names []stack.PatchName) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name.String()
	}
	return strings.Join(parts, " ")
}

// finishPushes executes the transaction. A push conflict is not a rollback:
// the conflicted state is persisted for manual resolution and the conflict
// error is returned alongside.
func finishPushes(ctx *runtime.Context, t *engine.Transaction, reflogMsg string, pushErr error) error {
	var conflict *errors.PushConflictError
	if pushErr != nil && !stderrors.As(pushErr, &conflict) {
		return pushErr
	}
	if err := t.Execute(ctx.Context, reflogMsg); err != nil {
		return err
	}
	if pushErr != nil {
		ctx.Splog.Error("resolve the conflicts in the worktree, then refresh %s", tui.ColorConflict(conflict.Patch))
		return pushErr
	}
	return nil
}

// confirm asks the user before a destructive operation. force skips the
// prompt, as does a non-interactive session.
func confirm(message string, force bool) error {
	if force || !tui.IsTTY() {
		return nil
	}
	ok := false
	if err := survey.AskOne(&survey.Confirm{Message: message}, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aborted")
	}
	return nil
}
