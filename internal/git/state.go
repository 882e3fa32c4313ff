package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"

	patchkiterrors "patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/stack"
)

const (
	stackRefPrefix = "refs/patchkit/stacks/"
	patchRefPrefix = "refs/patchkit/patches/"
	stateFileName  = "state.json"
)

// StackRefName returns the ref holding a branch's current state commit.
func StackRefName(branch string) plumbing.ReferenceName {
	return plumbing.ReferenceName(stackRefPrefix + branch)
}

// PatchRefName returns the ref pointing at a patch's commit.
func PatchRefName(branch string, name stack.PatchName) plumbing.ReferenceName {
	return plumbing.ReferenceName(patchRefPrefix + branch + "/" + name.String())
}

// StackExists reports whether a stack is initialized for branch.
func (r *Repository) StackExists(branch string) bool {
	_, err := r.Reference(StackRefName(branch), true)
	return err == nil
}

// InitStack records an empty stack for branch, based at the branch head.
func (r *Repository) InitStack(ctx context.Context, branch string) (*stack.Stack, error) {
	if r.StackExists(branch) {
		return nil, patchkiterrors.ErrAlreadyInitialized
	}
	ref, err := r.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve branch %q: %w", branch, err)
	}
	stk := stack.New(branch, ref.Hash())
	if _, err := r.CommitState(ctx, stk, "initialize", nil); err != nil {
		return nil, err
	}
	return stk, nil
}

// LoadStack loads the persisted stack state for branch.
func (r *Repository) LoadStack(ctx context.Context, branch string) (*stack.Stack, error) {
	ref, err := r.Reference(StackRefName(branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, patchkiterrors.ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read stack ref: %w", err)
	}
	st, err := r.LoadStateAt(ctx, ref.Hash())
	if err != nil {
		return nil, err
	}

	base := plumbing.NewHash(st.Head)
	if len(st.Applied) > 0 {
		first := plumbing.NewHash(st.Patches[st.Applied[0]].OID)
		commit, err := r.Commit(ctx, first)
		if err != nil {
			return nil, err
		}
		if commit.NumParents() == 0 {
			return nil, fmt.Errorf("malformed stack state: patch %q has no parent", st.Applied[0])
		}
		base = commit.ParentHashes[0]
	}
	return stack.FromState(branch, ref.Hash(), st, base)
}

// LoadStateAt reads the state document stored in a state commit.
func (r *Repository) LoadStateAt(ctx context.Context, stateCommit plumbing.Hash) (*stack.State, error) {
	commit, err := r.Commit(ctx, stateCommit)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read state tree: %w", err)
	}
	file, err := tree.File(stateFileName)
	if err != nil {
		return nil, fmt.Errorf("state commit %s has no %s: %w", stateCommit, stateFileName, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", stateFileName, err)
	}
	return stack.UnmarshalState([]byte(contents))
}

// CommitState persists the stack as a new state commit and performs the ref
// updates that go with it: the stack ref, the branch ref (advanced to the
// stack head), and one ref per patch. removed names have their patch refs
// deleted. The stack's StateCommit is updated to the new commit on success.
//
// The state commit's first parent is the previous state commit; the branch
// head and all unapplied and hidden patch commits are added as extra parents
// so every patch stays reachable from the stack ref.
func (r *Repository) CommitState(ctx context.Context, stk *stack.Stack, message string, removed []stack.PatchName) (plumbing.Hash, error) {
	committer, err := r.DefaultSignature()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	st := stk.ToState(stk.StateCommit)
	data, err := st.Marshal()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	blob, err := r.WriteBlob(data)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	tree, err := r.WriteTreeFromEntries(map[string]Entry{
		stateFileName: {Mode: filemode.Regular, Hash: blob},
	})
	if err != nil {
		return plumbing.ZeroHash, err
	}

	parents := make([]plumbing.Hash, 0, 2+len(stk.Unapplied)+len(stk.Hidden))
	seen := make(map[plumbing.Hash]struct{})
	addParent := func(id plumbing.Hash) {
		if id.IsZero() {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		parents = append(parents, id)
	}
	addParent(stk.StateCommit)
	addParent(stk.Head)
	for _, name := range stk.Unapplied {
		addParent(stk.Patches[name])
	}
	for _, name := range stk.Hidden {
		addParent(stk.Patches[name])
	}

	stateCommit, err := r.CommitTree(ctx, CommitSpec{
		Author:    committer,
		Committer: committer,
		Message:   message,
		Tree:      tree,
		Parents:   parents,
	})
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := r.Storer.SetReference(plumbing.NewHashReference(StackRefName(stk.Branch), stateCommit)); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to update stack ref: %w", err)
	}
	if err := r.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName(stk.Branch), stk.Head)); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to update branch ref: %w", err)
	}
	for name, id := range stk.Patches {
		if err := r.Storer.SetReference(plumbing.NewHashReference(PatchRefName(stk.Branch, name), id)); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to update patch ref %q: %w", name, err)
		}
	}
	for _, name := range removed {
		if err := r.Storer.RemoveReference(PatchRefName(stk.Branch, name)); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to remove patch ref %q: %w", name, err)
		}
	}

	stk.StateCommit = stateCommit
	return stateCommit, nil
}

// StateLogEntry is one recorded stack state, newest first in StateLog
// results.
type StateLogEntry struct {
	CommitID plumbing.Hash
	Message  string
	When     time.Time
	State    *stack.State
}

// StateLog walks the state commit chain for branch, newest first. limit <= 0
// returns the full chain.
func (r *Repository) StateLog(ctx context.Context, branch string, limit int) ([]StateLogEntry, error) {
	ref, err := r.Reference(StackRefName(branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, patchkiterrors.ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read stack ref: %w", err)
	}

	var entries []StateLogEntry
	id := ref.Hash()
	for !id.IsZero() {
		if limit > 0 && len(entries) >= limit {
			break
		}
		commit, err := r.Commit(ctx, id)
		if err != nil {
			return nil, err
		}
		st, err := r.LoadStateAt(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, StateLogEntry{
			CommitID: id,
			Message:  commit.Message,
			When:     commit.Committer.When,
			State:    st,
		})
		if st.Prev == "" {
			break
		}
		id = plumbing.NewHash(st.Prev)
	}
	return entries, nil
}
