package engine

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"patchkit.dev/patchkit/internal/git"
	"patchkit.dev/patchkit/internal/stack"
)

// ObjectStore defines the commit-graph reads and writes used by the engine.
// This allows the engine to be used with both real repositories and in-memory
// test repositories.
type ObjectStore interface {
	// Commit returns the commit object for id.
	Commit(ctx context.Context, id plumbing.Hash) (*object.Commit, error)

	// CommitTree writes a new commit object and returns its id. Commits are
	// immutable; rewriting a patch always produces a fresh object.
	CommitTree(ctx context.Context, spec git.CommitSpec) (plumbing.Hash, error)

	// DefaultSignature returns the acting user's signature.
	DefaultSignature() (object.Signature, error)
}

// ScratchIndex is a temporary index isolated from the real index and
// worktree. The engine composes trees through it without touching working
// files.
type ScratchIndex interface {
	ReadTree(ctx context.Context, tree plumbing.Hash) error

	// ApplyTreeDiff applies the changes between oldTree and newTree onto the
	// index. A false return means the diff does not apply (a conflict, not an
	// error) and the index is unchanged.
	ApplyTreeDiff(ctx context.Context, oldTree, newTree plumbing.Hash) (bool, error)

	WriteTree(ctx context.Context) (plumbing.Hash, error)

	// MergeTrees three-way merges ours and theirs against base, replacing the
	// index content with the result. Conflicting regions carry markers and
	// their paths are listed in the result.
	MergeTrees(ctx context.Context, base, ours, theirs plumbing.Hash) (git.MergeResult, error)
}

// TreeMerger hands out scratch indexes.
type TreeMerger interface {
	NewScratchIndex(ctx context.Context) (ScratchIndex, error)
}

// StackStore persists stack states and updates the real worktree.
type StackStore interface {
	// CommitState writes the stack as a new state commit and performs the
	// ref updates that go with it: stack ref, branch ref, patch refs.
	// Patch refs for removed names are deleted.
	CommitState(ctx context.Context, stk *stack.Stack, message string, removed []stack.PatchName) (plumbing.Hash, error)

	// CheckoutTree updates the real index and worktree to a commit's tree.
	CheckoutTree(ctx context.Context, commit plumbing.Hash) error
}

// Services bundles the collaborators every engine call works through. There
// are no package globals; the caller wires a bundle once per invocation.
type Services struct {
	Store  ObjectStore
	Merger TreeMerger
	Stacks StackStore
}

// NewServices wires a repository into a service bundle.
func NewServices(repo *git.Repository) Services {
	return Services{
		Store:  repo,
		Merger: &repoMerger{repo: repo},
		Stacks: repo,
	}
}

// repoMerger adapts the repository's concrete scratch index to the
// ScratchIndex interface.
type repoMerger struct {
	repo *git.Repository
}

func (m *repoMerger) NewScratchIndex(ctx context.Context) (ScratchIndex, error) {
	return m.repo.NewScratchIndex(ctx)
}
