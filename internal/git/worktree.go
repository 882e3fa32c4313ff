package git

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// WorktreeTree writes a tree object capturing the tracked content of the
// worktree: the head tree with modified files re-blobbed, staged additions
// included, and deleted files dropped. Untracked files stay out.
func (r *Repository) WorktreeTree(ctx context.Context) (plumbing.Hash, error) {
	head, err := r.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := r.Commit(ctx, head.Hash())
	if err != nil {
		return plumbing.ZeroHash, err
	}
	entries, err := r.TreeEntries(commit.TreeHash)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	wt, err := r.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get status: %w", err)
	}

	for path, fs := range status {
		switch {
		case fs.Staging == gogit.Untracked && fs.Worktree == gogit.Untracked:
			continue
		case fs.Worktree == gogit.Deleted,
			fs.Staging == gogit.Deleted && fs.Worktree == gogit.Unmodified:
			delete(entries, path)
		default:
			data, err := util.ReadFile(wt.Filesystem, path)
			if err != nil {
				return plumbing.ZeroHash, fmt.Errorf("failed to read %s: %w", path, err)
			}
			blob, err := r.WriteBlob(data)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			mode := filemode.Regular
			if existing, ok := entries[path]; ok {
				mode = existing.Mode
			}
			entries[path] = Entry{Mode: mode, Hash: blob}
		}
	}

	return r.WriteTreeFromEntries(entries)
}

// ResetIndex points the index at a commit's tree without touching worktree
// files (mixed reset).
func (r *Repository) ResetIndex(ctx context.Context, commit plumbing.Hash) error {
	wt, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: commit, Mode: gogit.MixedReset}); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}
	return nil
}

// IsIndexClean reports whether the index matches HEAD.
func (r *Repository) IsIndexClean() (bool, error) {
	wt, err := r.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	for _, fs := range status {
		if fs.Staging != gogit.Unmodified && fs.Staging != gogit.Untracked {
			return false, nil
		}
	}
	return true, nil
}
