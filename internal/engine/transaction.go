package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/git"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/internal/tui"
)

// Transaction owns a mutable working copy of a stack. Operations validate
// against and mutate the working copy; nothing is persisted until Execute,
// the sole commit point. A fatal operation error poisons the transaction:
// Execute returns the error and the persisted stack is left untouched.
type Transaction struct {
	svc       Services
	opts      Options
	out       *tui.Splog
	original  *stack.Stack
	stk       *stack.Stack
	removed   []stack.PatchName
	conflicts []string
	err       error
	executed  bool
}

// Begin captures a working copy of stk. The original is not touched until
// Execute succeeds, at which point it is updated to the executed state.
func Begin(svc Services, stk *stack.Stack, opts Options) *Transaction {
	out := opts.Output
	if out == nil {
		out = tui.NewSilentSplog()
	}
	return &Transaction{
		svc:      svc,
		opts:     opts,
		out:      out,
		original: stk,
		stk:      stk.Clone(),
	}
}

// Stack returns a snapshot of the working copy.
func (t *Transaction) Stack() *stack.Stack {
	return t.stk.Clone()
}

// Conflicts returns the names of patches recorded applied-with-conflict,
// in the order the conflicts happened.
func (t *Transaction) Conflicts() []string {
	return slices.Clone(t.conflicts)
}

func (t *Transaction) guard() error {
	if t.executed {
		return errors.ErrTransactionExecuted
	}
	return t.err
}

// fatal records the first fatal error. Execute will refuse to persist and
// return it.
func (t *Transaction) fatal(op string, err error) error {
	if t.err == nil {
		t.err = errors.NewTransactionAbortedError(op, err)
	}
	return err
}

func (t *Transaction) resetHead() {
	if top, ok := t.stk.Top(); ok {
		t.stk.Head = t.stk.Patches[top]
	} else {
		t.stk.Head = t.stk.Base
	}
}

// unremove drops name from the pending ref removals. Required when a deleted
// or renamed-away name is reintroduced within the same transaction.
func (t *Transaction) unremove(name stack.PatchName) {
	if idx := slices.Index(t.removed, name); idx >= 0 {
		t.removed = slices.Delete(t.removed, idx, idx+1)
	}
}

// PushPatches applies each named patch, in order, onto the current stack
// head. A clean replay rewrites the patch's commit onto the new base and
// moves the name to the top of applied. A conflicted replay records the
// patch as applied with the conflicted tree (markers included), stops the
// batch, and returns a PushConflictError; with Options.AllowConflicts the
// transaction stays usable, otherwise it is poisoned. With checkMerged, a
// patch whose changes are already contained in the base is pushed as an
// empty patch.
func (t *Transaction) PushPatches(ctx context.Context, names []stack.PatchName, checkMerged bool) error {
	if err := t.guard(); err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	if len(t.conflicts) > 0 {
		return fmt.Errorf("cannot push %q onto a conflicted tree: %w", names[0], errors.ErrPushConflict)
	}
	for _, name := range names {
		if err := t.pushPatch(ctx, name, checkMerged); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transaction) pushPatch(ctx context.Context, name stack.PatchName, checkMerged bool) error {
	id, ok := t.stk.PatchCommit(name)
	if !ok {
		return errors.NewPatchNotFoundError(name.String())
	}
	if !t.stk.IsUnapplied(name) {
		return errors.NewInvalidSelectionError("patch is not unapplied", name.String())
	}

	commit, err := t.svc.Store.Commit(ctx, id)
	if err != nil {
		return t.fatal("push", err)
	}
	if commit.NumParents() == 0 {
		return t.fatal("push", fmt.Errorf("patch %q has no parent", name))
	}

	// Stored parent already matches the new base: reuse the commit as is.
	if commit.ParentHashes[0] == t.stk.Head {
		t.applyPushed(name, id)
		t.out.Info("pushed %s", name)
		return nil
	}

	parent, err := t.svc.Store.Commit(ctx, commit.ParentHashes[0])
	if err != nil {
		return t.fatal("push", err)
	}
	base, err := t.svc.Store.Commit(ctx, t.stk.Head)
	if err != nil {
		return t.fatal("push", err)
	}

	oldTree := parent.TreeHash
	newTree := commit.TreeHash
	baseTree := base.TreeHash

	resultTree := baseTree
	merged := false
	var conflictPaths []string

	if oldTree != newTree {
		if checkMerged {
			ok, err := t.alreadyMerged(ctx, oldTree, newTree, baseTree)
			if err != nil {
				return t.fatal("push", err)
			}
			merged = ok
		}
		if !merged {
			ix, err := t.svc.Merger.NewScratchIndex(ctx)
			if err != nil {
				return t.fatal("push", err)
			}
			if err := ix.ReadTree(ctx, baseTree); err != nil {
				return t.fatal("push", err)
			}
			applied, err := ix.ApplyTreeDiff(ctx, oldTree, newTree)
			if err != nil {
				return t.fatal("push", err)
			}
			if applied {
				resultTree, err = ix.WriteTree(ctx)
				if err != nil {
					return t.fatal("push", err)
				}
			} else {
				res, err := ix.MergeTrees(ctx, oldTree, baseTree, newTree)
				if err != nil {
					return t.fatal("push", err)
				}
				resultTree = res.Tree
				conflictPaths = res.Conflicts
			}
		}
	}

	newID, err := t.rewriteCommit(ctx, commit, resultTree, t.stk.Head)
	if err != nil {
		return t.fatal("push", err)
	}
	t.applyPushed(name, newID)

	if len(conflictPaths) > 0 {
		t.conflicts = append(t.conflicts, name.String())
		t.out.Warn("conflicts while pushing %s", name)
		conflictErr := errors.NewPushConflictError(name.String(), conflictPaths)
		if !t.opts.AllowConflicts {
			return t.fatal("push", conflictErr)
		}
		return conflictErr
	}
	if merged {
		t.out.Info("pushed %s (merged)", name)
	} else {
		t.out.Info("pushed %s", name)
	}
	return nil
}

// alreadyMerged probes whether a patch's changes are already contained in the
// base tree by applying the reverse diff onto it.
func (t *Transaction) alreadyMerged(ctx context.Context, oldTree, newTree, baseTree plumbing.Hash) (bool, error) {
	ix, err := t.svc.Merger.NewScratchIndex(ctx)
	if err != nil {
		return false, err
	}
	if err := ix.ReadTree(ctx, baseTree); err != nil {
		return false, err
	}
	return ix.ApplyTreeDiff(ctx, newTree, oldTree)
}

// rewriteCommit writes a fresh commit carrying the patch's author and message
// onto a new parent and tree. The committer is the acting user, stamped per
// the transaction's date policy.
func (t *Transaction) rewriteCommit(ctx context.Context, commit *object.Commit, tree, parent plumbing.Hash) (plumbing.Hash, error) {
	committer, err := t.svc.Store.DefaultSignature()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if t.opts.CommitterDateIsAuthorDate {
		committer.When = commit.Author.When
	}
	return t.svc.Store.CommitTree(ctx, git.CommitSpec{
		Author:    commit.Author,
		Committer: committer,
		Message:   commit.Message,
		Tree:      tree,
		Parents:   []plumbing.Hash{parent},
		Sign:      t.opts.Sign,
	})
}

func (t *Transaction) applyPushed(name stack.PatchName, id plumbing.Hash) {
	idx := slices.Index(t.stk.Unapplied, name)
	t.stk.Unapplied = slices.Delete(t.stk.Unapplied, idx, idx+1)
	t.stk.Applied = append(t.stk.Applied, name)
	t.stk.Patches[name] = id
	t.stk.Head = id
}

// PopPatches pops every applied patch from the lowest match upward: patches
// cannot be popped out of relative order. The removed names keep their
// bottom-to-top order at the front of unapplied and are returned in that
// order for later re-push. Popping only changes group membership, never patch
// commits, so it cannot conflict.
func (t *Transaction) PopPatches(ctx context.Context, shouldPop func(stack.PatchName) bool) ([]stack.PatchName, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}
	idx := -1
	for i, name := range t.stk.Applied {
		if shouldPop(name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	popped := slices.Clone(t.stk.Applied[idx:])
	t.stk.Applied = t.stk.Applied[:idx]
	unapplied := make([]stack.PatchName, 0, len(popped)+len(t.stk.Unapplied))
	unapplied = append(unapplied, popped...)
	unapplied = append(unapplied, t.stk.Unapplied...)
	t.stk.Unapplied = unapplied
	t.resetHead()

	for i := len(popped) - 1; i >= 0; i-- {
		t.out.Info("popped %s", popped[i])
	}
	return popped, nil
}

// DeletePatches removes every matching name from the stack. A match in the
// applied group pops everything above it as a side effect; the displaced
// non-matching names land at the front of unapplied in their original
// bottom-to-top order and are returned for re-push. Refs of deleted patches
// are removed on Execute.
func (t *Transaction) DeletePatches(ctx context.Context, shouldDelete func(stack.PatchName) bool) ([]stack.PatchName, error) {
	if err := t.guard(); err != nil {
		return nil, err
	}

	idx := -1
	for i, name := range t.stk.Applied {
		if shouldDelete(name) {
			idx = i
			break
		}
	}
	var displaced []stack.PatchName
	if idx >= 0 {
		for _, name := range t.stk.Applied[idx:] {
			if shouldDelete(name) {
				t.removeName(name)
			} else {
				displaced = append(displaced, name)
			}
		}
		t.stk.Applied = t.stk.Applied[:idx]
		unapplied := make([]stack.PatchName, 0, len(displaced)+len(t.stk.Unapplied))
		unapplied = append(unapplied, displaced...)
		unapplied = append(unapplied, t.stk.Unapplied...)
		t.stk.Unapplied = unapplied
		t.resetHead()
	}

	t.stk.Unapplied = t.filterDeleted(t.stk.Unapplied, shouldDelete)
	t.stk.Hidden = t.filterDeleted(t.stk.Hidden, shouldDelete)

	return displaced, nil
}

func (t *Transaction) filterDeleted(names []stack.PatchName, shouldDelete func(stack.PatchName) bool) []stack.PatchName {
	kept := make([]stack.PatchName, 0, len(names))
	for _, name := range names {
		if shouldDelete(name) {
			t.removeName(name)
		} else {
			kept = append(kept, name)
		}
	}
	return kept
}

func (t *Transaction) removeName(name stack.PatchName) {
	delete(t.stk.Patches, name)
	t.removed = append(t.removed, name)
	t.out.Info("deleted %s", name)
}

// NewUnapplied inserts a brand-new patch name bound to an existing commit at
// the given position in the unapplied group. A negative index or one past the
// end appends.
func (t *Transaction) NewUnapplied(ctx context.Context, name stack.PatchName, id plumbing.Hash, index int) error {
	if err := t.guard(); err != nil {
		return err
	}
	if err := stack.ValidatePatchName(name.String()); err != nil {
		return err
	}
	if t.stk.Contains(name) {
		return errors.NewNameCollisionError(name.String())
	}
	if index < 0 || index > len(t.stk.Unapplied) {
		index = len(t.stk.Unapplied)
	}
	t.stk.Unapplied = slices.Insert(t.stk.Unapplied, index, name)
	t.stk.Patches[name] = id
	t.unremove(name)
	return nil
}

// NewApplied appends a brand-new patch on top of the applied group. The
// commit's first parent must be the current stack head.
func (t *Transaction) NewApplied(ctx context.Context, name stack.PatchName, id plumbing.Hash) error {
	if err := t.guard(); err != nil {
		return err
	}
	if err := stack.ValidatePatchName(name.String()); err != nil {
		return err
	}
	if t.stk.Contains(name) {
		return errors.NewNameCollisionError(name.String())
	}
	commit, err := t.svc.Store.Commit(ctx, id)
	if err != nil {
		return t.fatal("new", err)
	}
	if commit.NumParents() == 0 || commit.ParentHashes[0] != t.stk.Head {
		return fmt.Errorf("commit %s does not continue the stack head %s", id, t.stk.Head)
	}
	t.stk.Applied = append(t.stk.Applied, name)
	t.stk.Patches[name] = id
	t.stk.Head = id
	t.unremove(name)
	return nil
}

// UpdatePatch rebinds an existing name to a new commit. An applied patch can
// only be updated at the top of the stack, where no other patch builds on it.
func (t *Transaction) UpdatePatch(ctx context.Context, name stack.PatchName, id plumbing.Hash) error {
	if err := t.guard(); err != nil {
		return err
	}
	if !t.stk.Contains(name) {
		return errors.NewPatchNotFoundError(name.String())
	}
	if t.stk.IsApplied(name) {
		if top, _ := t.stk.Top(); top != name {
			return errors.NewInvalidSelectionError("cannot update a patch below the stack top", name.String())
		}
		t.stk.Head = id
	}
	t.stk.Patches[name] = id
	return nil
}

// HidePatches moves names from unapplied to hidden. Applied patches must be
// popped first. Hiding an already hidden patch is a no-op.
func (t *Transaction) HidePatches(ctx context.Context, names []stack.PatchName) error {
	if err := t.guard(); err != nil {
		return err
	}
	for _, name := range names {
		if !t.stk.Contains(name) {
			return errors.NewPatchNotFoundError(name.String())
		}
		if t.stk.IsApplied(name) {
			return errors.NewInvalidSelectionError("cannot hide an applied patch; pop it first", name.String())
		}
	}
	for _, name := range names {
		if t.stk.IsHidden(name) {
			continue
		}
		idx := slices.Index(t.stk.Unapplied, name)
		t.stk.Unapplied = slices.Delete(t.stk.Unapplied, idx, idx+1)
		t.stk.Hidden = append(t.stk.Hidden, name)
		t.out.Info("hid %s", name)
	}
	return nil
}

// UnhidePatches moves names from hidden to the end of unapplied.
func (t *Transaction) UnhidePatches(ctx context.Context, names []stack.PatchName) error {
	if err := t.guard(); err != nil {
		return err
	}
	for _, name := range names {
		if !t.stk.Contains(name) {
			return errors.NewPatchNotFoundError(name.String())
		}
		if !t.stk.IsHidden(name) {
			return errors.NewInvalidSelectionError("patch is not hidden", name.String())
		}
	}
	for _, name := range names {
		idx := slices.Index(t.stk.Hidden, name)
		t.stk.Hidden = slices.Delete(t.stk.Hidden, idx, idx+1)
		t.stk.Unapplied = append(t.stk.Unapplied, name)
		t.out.Info("unhid %s", name)
	}
	return nil
}

// RenamePatch renames a patch, keeping its commit and position. The new name
// must not collide with any existing patch.
func (t *Transaction) RenamePatch(ctx context.Context, oldName, newName stack.PatchName) error {
	if err := t.guard(); err != nil {
		return err
	}
	if !t.stk.Contains(oldName) {
		return errors.NewPatchNotFoundError(oldName.String())
	}
	if err := stack.ValidatePatchName(newName.String()); err != nil {
		return err
	}
	if t.stk.Contains(newName) {
		return errors.NewNameCollisionError(newName.String())
	}
	for _, group := range []*[]stack.PatchName{&t.stk.Applied, &t.stk.Unapplied, &t.stk.Hidden} {
		if idx := slices.Index(*group, oldName); idx >= 0 {
			(*group)[idx] = newName
		}
	}
	t.stk.Patches[newName] = t.stk.Patches[oldName]
	delete(t.stk.Patches, oldName)
	t.removed = append(t.removed, oldName)
	t.unremove(newName)
	return nil
}

// ResetToState replaces the entire working copy with a previously recorded
// state. Patch refs for names that disappear are removed on Execute.
func (t *Transaction) ResetToState(ctx context.Context, st *stack.State) error {
	if err := t.guard(); err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return err
	}

	head := plumbing.NewHash(st.Head)
	base := head
	if len(st.Applied) > 0 {
		first := plumbing.NewHash(st.Patches[st.Applied[0]].OID)
		commit, err := t.svc.Store.Commit(ctx, first)
		if err != nil {
			return t.fatal("reset", err)
		}
		if commit.NumParents() == 0 {
			return t.fatal("reset", fmt.Errorf("patch %q has no parent", st.Applied[0]))
		}
		base = commit.ParentHashes[0]
	}

	for name := range t.stk.Patches {
		if _, ok := st.Patches[name]; !ok {
			t.removed = append(t.removed, name)
		}
	}
	for name := range st.Patches {
		t.unremove(name)
	}

	restored := &stack.Stack{
		Branch:      t.stk.Branch,
		StateCommit: t.stk.StateCommit,
		Head:        head,
		Base:        base,
		Applied:     slices.Clone(st.Applied),
		Unapplied:   slices.Clone(st.Unapplied),
		Hidden:      slices.Clone(st.Hidden),
		Patches:     make(map[stack.PatchName]plumbing.Hash, len(st.Patches)),
	}
	for name, desc := range st.Patches {
		restored.Patches[name] = plumbing.NewHash(desc.OID)
	}
	t.stk = restored
	return nil
}

// Execute persists the working copy: one state commit carrying the reflog
// message, plus the stack ref, branch ref, and patch ref updates, applied
// through StackStore.CommitState as a single logical update. Valid at most
// once. Recorded conflicts add a " (CONFLICT)" suffix to the message. With
// UseIndexAndWorktree the new head tree is then checked out; a checkout
// refusal surfaces as CheckoutConflictsError and does NOT roll back the
// already written stack state.
func (t *Transaction) Execute(ctx context.Context, reflogMessage string) error {
	if t.executed {
		return errors.ErrTransactionExecuted
	}
	t.executed = true
	if t.err != nil {
		return t.err
	}

	message := reflogMessage
	if len(t.conflicts) > 0 {
		message += " (CONFLICT)"
	}

	if _, err := t.svc.Stacks.CommitState(ctx, t.stk, message, t.removed); err != nil {
		return fmt.Errorf("failed to persist stack state: %w", err)
	}
	*t.original = *t.stk
	t.out.Debug("recorded stack state %s", t.stk.StateCommit)

	if t.opts.UseIndexAndWorktree {
		if err := t.svc.Stacks.CheckoutTree(ctx, t.stk.Head); err != nil {
			return err
		}
	}
	return nil
}
