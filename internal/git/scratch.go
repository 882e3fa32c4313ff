package git

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// ScratchIndex is an in-memory index isolated from the real index and
// worktree. The transaction engine composes trees with the read-tree /
// apply-treediff / write-tree cycle without ever touching working files.
type ScratchIndex struct {
	repo    *Repository
	entries map[string]Entry
}

// NewScratchIndex returns an empty scratch index backed by the repository's
// object store.
func (r *Repository) NewScratchIndex(ctx context.Context) (*ScratchIndex, error) {
	return &ScratchIndex{
		repo:    r,
		entries: make(map[string]Entry),
	}, nil
}

// ReadTree replaces the index content with the given tree.
func (ix *ScratchIndex) ReadTree(ctx context.Context, tree plumbing.Hash) error {
	entries, err := ix.repo.TreeEntries(tree)
	if err != nil {
		return err
	}
	ix.entries = entries
	return nil
}

// ApplyTreeDiff applies the changes between oldTree and newTree onto the
// index. Returns false when the diff does not apply (the indexed state does
// not match the diff's preimage) — a conflict, not an error. The index is
// only mutated on full success.
func (ix *ScratchIndex) ApplyTreeDiff(ctx context.Context, oldTree, newTree plumbing.Hash) (bool, error) {
	if oldTree == newTree {
		return true, nil
	}
	from, err := ix.repo.TreeObject(oldTree)
	if err != nil {
		return false, fmt.Errorf("failed to read tree %s: %w", oldTree, err)
	}
	to, err := ix.repo.TreeObject(newTree)
	if err != nil {
		return false, fmt.Errorf("failed to read tree %s: %w", newTree, err)
	}
	changes, err := object.DiffTreeContext(ctx, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to diff trees: %w", err)
	}

	staged := make(map[string]Entry, len(ix.entries))
	for path, entry := range ix.entries {
		staged[path] = entry
	}

	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return false, fmt.Errorf("failed to classify change: %w", err)
		}
		switch action {
		case merkletrie.Insert:
			path := change.To.Name
			want := Entry{Mode: change.To.TreeEntry.Mode, Hash: change.To.TreeEntry.Hash}
			if existing, ok := staged[path]; ok && existing != want {
				return false, nil
			}
			staged[path] = want
		case merkletrie.Delete:
			path := change.From.Name
			want := Entry{Mode: change.From.TreeEntry.Mode, Hash: change.From.TreeEntry.Hash}
			existing, ok := staged[path]
			if !ok || existing != want {
				return false, nil
			}
			delete(staged, path)
		case merkletrie.Modify:
			path := change.To.Name
			old := Entry{Mode: change.From.TreeEntry.Mode, Hash: change.From.TreeEntry.Hash}
			want := Entry{Mode: change.To.TreeEntry.Mode, Hash: change.To.TreeEntry.Hash}
			existing, ok := staged[path]
			if ok && existing == want {
				continue
			}
			if !ok || existing != old {
				return false, nil
			}
			staged[path] = want
		}
	}

	ix.entries = staged
	return true, nil
}

// WriteTree writes the index content as a tree and returns its id.
func (ix *ScratchIndex) WriteTree(ctx context.Context) (plumbing.Hash, error) {
	return ix.repo.WriteTreeFromEntries(ix.entries)
}
