package git

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	patchkiterrors "patchkit.dev/patchkit/internal/errors"
)

// CheckoutTree updates the real index and worktree to the given commit's
// tree with read-tree -u -m semantics: unstaged local changes refuse the
// whole update. The refusal surfaces as a CheckoutConflictsError; whether
// stack state was already committed is the caller's concern.
func (r *Repository) CheckoutTree(ctx context.Context, commit plumbing.Hash) error {
	wt, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	err = wt.Reset(&gogit.ResetOptions{Commit: commit, Mode: gogit.MergeReset})
	if err != nil {
		if errors.Is(err, gogit.ErrUnstagedChanges) {
			return patchkiterrors.NewCheckoutConflictsError(err)
		}
		return fmt.Errorf("failed to check out tree: %w", err)
	}
	return nil
}
