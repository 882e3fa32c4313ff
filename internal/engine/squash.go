package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/internal/tui"
)

// SquashRequest describes merging two or more existing patches into one new
// patch. Patches lists the selection in composition order; the combined tree
// and message are built in that order.
type SquashRequest struct {
	Patches []stack.PatchName

	// Name optionally fixes the squashed patch's name. It may reuse the
	// name of a selected patch but must not collide with any other.
	Name stack.PatchName

	// Message overrides the composed default message when non-empty.
	Message string

	Editor PatchEditor

	// SaveTemplatePath, when set, writes the message template to this path
	// and returns without touching the stack.
	SaveTemplatePath string
}

// Squash merges the selected patches into a single new patch. The fast path
// composes the result tree by stacking each patch's diff on the first
// patch's tree in a scratch index; if any diff does not apply, the fallback
// pops the selection, pushes it back consecutively, and retries. The new
// patch replaces the selection as unapplied at the front, then it and any
// displaced patches are pushed back; the new patch is only pushed if the
// selection included an applied patch.
//
// Squash owns its transaction and always tolerates push conflicts so that a
// conflicted fallback leaves the stack persisted for manual resolution; in
// that case the error is a CausedConflictsError.
func Squash(ctx context.Context, svc Services, stk *stack.Stack, opts Options, req SquashRequest) (stack.PatchName, error) {
	if req.Editor == nil {
		return "", fmt.Errorf("squash requires a patch editor")
	}
	if err := validateSquashSelection(stk, req); err != nil {
		return "", err
	}

	out := opts.Output
	if out == nil {
		out = tui.NewSilentSplog()
	}

	inSelection := func(name stack.PatchName) bool {
		return slices.Contains(req.Patches, name)
	}

	// The template is written before any transaction exists.
	if req.SaveTemplatePath != "" {
		return "", saveSquashTemplate(ctx, svc, opts, req, out, func(name stack.PatchName) (*object.Commit, error) {
			return patchCommit(ctx, svc, stk, name)
		})
	}

	shouldPushSquashed := slices.ContainsFunc(req.Patches, stk.IsApplied)

	opts.AllowConflicts = true
	t := Begin(svc, stk, opts)

	commitOf := func(name stack.PatchName) (*object.Commit, error) {
		return patchCommit(ctx, svc, t.stk, name)
	}
	taken := func(name stack.PatchName) bool {
		return t.stk.Contains(name) && !inSelection(name)
	}
	persistConflict := func(pushErr error) error {
		if execErr := t.Execute(ctx, "squash"); execErr != nil {
			return execErr
		}
		return errors.NewCausedConflictsError("squash", pushErr)
	}

	newName, newCommit, ok, err := trySquash(ctx, svc, opts, req, commitOf, taken)
	if err != nil {
		return "", err
	}

	var toPush []stack.PatchName
	if ok {
		// The tree composed cleanly, so the constituents can just go.
		toPush, err = t.DeletePatches(ctx, inSelection)
		if err != nil {
			return "", err
		}
	} else {
		// Make the selection consecutive and retry.
		popped, err := t.PopPatches(ctx, inSelection)
		if err != nil {
			return "", err
		}
		for _, name := range popped {
			if !inSelection(name) {
				toPush = append(toPush, name)
			}
		}
		if err := t.PushPatches(ctx, req.Patches, false); err != nil {
			var conflict *errors.PushConflictError
			if stderrors.As(err, &conflict) {
				return "", persistConflict(err)
			}
			return "", err
		}
		newName, newCommit, ok, err = trySquash(ctx, svc, opts, req, commitOf, taken)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.NewCausedConflictsError("squash", fmt.Errorf("conflicts while squashing"))
		}
		extra, err := t.DeletePatches(ctx, inSelection)
		if err != nil {
			return "", err
		}
		if len(extra) > 0 {
			return "", fmt.Errorf("unexpected patches displaced while squashing: %v", extra)
		}
	}

	if err := t.NewUnapplied(ctx, newName, newCommit, 0); err != nil {
		return "", err
	}
	if shouldPushSquashed {
		toPush = append([]stack.PatchName{newName}, toPush...)
	}
	if err := t.PushPatches(ctx, toPush, false); err != nil {
		var conflict *errors.PushConflictError
		if stderrors.As(err, &conflict) {
			return "", persistConflict(err)
		}
		return "", err
	}

	if err := t.Execute(ctx, "squash"); err != nil {
		return "", err
	}
	out.Info("squashed into %s", newName)
	return newName, nil
}

func validateSquashSelection(stk *stack.Stack, req SquashRequest) error {
	names := make([]string, len(req.Patches))
	for i, name := range req.Patches {
		names[i] = name.String()
	}
	if len(req.Patches) < 2 {
		return errors.NewInvalidSelectionError("need at least two patches", names...)
	}
	seen := make(map[stack.PatchName]struct{}, len(req.Patches))
	for _, name := range req.Patches {
		if _, dup := seen[name]; dup {
			return errors.NewInvalidSelectionError("duplicate patch", name.String())
		}
		seen[name] = struct{}{}
		if !stk.Contains(name) {
			return errors.NewInvalidSelectionError("unknown patch", name.String())
		}
		if stk.IsHidden(name) {
			return errors.NewInvalidSelectionError("cannot squash a hidden patch", name.String())
		}
	}
	if req.Name != "" {
		if err := stack.ValidatePatchName(req.Name.String()); err != nil {
			return err
		}
		if _, selected := seen[req.Name]; !selected && stk.Contains(req.Name) {
			return errors.NewNameCollisionError(req.Name.String())
		}
	}
	return nil
}

func patchCommit(ctx context.Context, svc Services, stk *stack.Stack, name stack.PatchName) (*object.Commit, error) {
	id, ok := stk.PatchCommit(name)
	if !ok {
		return nil, errors.NewPatchNotFoundError(name.String())
	}
	return svc.Store.Commit(ctx, id)
}

// trySquash composes the squashed tree and runs the edit step. ok is false
// with a nil error when a tree diff did not apply and the caller should fall
// back to pop and push.
func trySquash(
	ctx context.Context,
	svc Services,
	opts Options,
	req SquashRequest,
	commitOf func(stack.PatchName) (*object.Commit, error),
	taken func(stack.PatchName) bool,
) (stack.PatchName, plumbing.Hash, bool, error) {
	commits := make([]*object.Commit, len(req.Patches))
	for i, name := range req.Patches {
		commit, err := commitOf(name)
		if err != nil {
			return "", plumbing.ZeroHash, false, err
		}
		commits[i] = commit
	}

	tree, ok, err := composeSquashTree(ctx, svc, commits)
	if err != nil {
		return "", plumbing.ZeroHash, false, err
	}
	if !ok {
		return "", plumbing.ZeroHash, false, nil
	}

	author, committer, message, err := squashMetadata(ctx, svc, opts, req, commits)
	if err != nil {
		return "", plumbing.ZeroHash, false, err
	}
	if commits[0].NumParents() == 0 {
		return "", plumbing.ZeroHash, false, fmt.Errorf("patch %q has no parent", req.Patches[0])
	}

	outcome, err := req.Editor.EditPatch(ctx, svc.Store, EditRequest{
		Name:      req.Name,
		Author:    author,
		Committer: committer,
		Message:   message,
		Tree:      tree,
		Parent:    commits[0].ParentHashes[0],
		Sign:      opts.Sign,
		TakenName: taken,
	})
	if err != nil {
		return "", plumbing.ZeroHash, false, err
	}
	edited, isEdited := outcome.(Edited)
	if !isEdited {
		return "", plumbing.ZeroHash, false, fmt.Errorf("edit step did not produce a commit")
	}
	return edited.Name, edited.CommitID, true, nil
}

// composeSquashTree stacks each patch's diff on the first patch's tree in a
// scratch index. ok is false with a nil error when a diff does not apply.
func composeSquashTree(ctx context.Context, svc Services, commits []*object.Commit) (plumbing.Hash, bool, error) {
	ix, err := svc.Merger.NewScratchIndex(ctx)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	if err := ix.ReadTree(ctx, commits[0].TreeHash); err != nil {
		return plumbing.ZeroHash, false, err
	}
	for _, commit := range commits[1:] {
		if commit.NumParents() == 0 {
			return plumbing.ZeroHash, false, fmt.Errorf("patch commit %s has no parent", commit.Hash)
		}
		parent, err := svc.Store.Commit(ctx, commit.ParentHashes[0])
		if err != nil {
			return plumbing.ZeroHash, false, err
		}
		if parent.TreeHash == commit.TreeHash {
			continue
		}
		applied, err := ix.ApplyTreeDiff(ctx, parent.TreeHash, commit.TreeHash)
		if err != nil {
			return plumbing.ZeroHash, false, err
		}
		if !applied {
			return plumbing.ZeroHash, false, nil
		}
	}
	tree, err := ix.WriteTree(ctx)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	return tree, true, nil
}

// squashMetadata reconciles authorship and composes the default message for
// the squashed patch.
func squashMetadata(ctx context.Context, svc Services, opts Options, req SquashRequest, commits []*object.Commit) (object.Signature, object.Signature, string, error) {
	acting, err := svc.Store.DefaultSignature()
	if err != nil {
		return object.Signature{}, object.Signature{}, "", err
	}

	authors := make([]authorSource, len(commits))
	for i, commit := range commits {
		authors[i] = authorSource{patch: req.Patches[i], author: commit.Author}
	}
	author, trailers, err := reconcileAuthors(authors, acting)
	if err != nil {
		return object.Signature{}, object.Signature{}, "", err
	}

	message := req.Message
	if message == "" {
		messages := make([]messageSource, len(commits))
		for i, commit := range commits {
			messages[i] = messageSource{patch: req.Patches[i], message: commit.Message}
		}
		message = composeMessage(messages, trailers)
	}

	committer := acting
	if opts.CommitterDateIsAuthorDate {
		committer.When = author.When
	}
	return author, committer, message, nil
}

// saveSquashTemplate writes the would-be squash message to the requested
// path via the edit step, without starting a transaction.
func saveSquashTemplate(
	ctx context.Context,
	svc Services,
	opts Options,
	req SquashRequest,
	out *tui.Splog,
	commitOf func(stack.PatchName) (*object.Commit, error),
) error {
	commits := make([]*object.Commit, len(req.Patches))
	for i, name := range req.Patches {
		commit, err := commitOf(name)
		if err != nil {
			return err
		}
		commits[i] = commit
	}
	author, committer, message, err := squashMetadata(ctx, svc, opts, req, commits)
	if err != nil {
		return err
	}
	if commits[0].NumParents() == 0 {
		return fmt.Errorf("patch %q has no parent", req.Patches[0])
	}
	outcome, err := req.Editor.EditPatch(ctx, svc.Store, EditRequest{
		Name:             req.Name,
		Author:           author,
		Committer:        committer,
		Message:          message,
		Tree:             commits[0].TreeHash,
		Parent:           commits[0].ParentHashes[0],
		Sign:             opts.Sign,
		SaveTemplatePath: req.SaveTemplatePath,
	})
	if err != nil {
		return err
	}
	saved, isSaved := outcome.(TemplateSaved)
	if !isSaved {
		return fmt.Errorf("edit step did not save the template")
	}
	out.Info("patch template saved to %s", saved.Path)
	return nil
}
