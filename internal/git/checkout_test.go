package git_test

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/testhelpers"
)

func TestCheckoutTree(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("materializes the target commit's tree", func(t *testing.T) {
		s := testhelpers.NewScene(t)
		first := s.Commit(map[string]string{"a.txt": "one\n"}, "add a")
		s.Commit(map[string]string{"a.txt": "two\n"}, "update a")
		require.Equal(t, "two\n", s.ReadFile("a.txt"))

		require.NoError(t, s.Repo.CheckoutTree(ctx, first))

		require.Equal(t, "one\n", s.ReadFile("a.txt"))
		head, err := s.Repo.Head()
		require.NoError(t, err)
		require.Equal(t, first, head.Hash())
	})

	t.Run("refuses when tracked files have unstaged changes", func(t *testing.T) {
		s := testhelpers.NewScene(t)
		first := s.Commit(map[string]string{"a.txt": "one\n"}, "add a")
		second := s.Commit(map[string]string{"a.txt": "two\n"}, "update a")
		s.WriteFileUnstaged("a.txt", "local\n")

		err := s.Repo.CheckoutTree(ctx, first)
		require.ErrorIs(t, err, errors.ErrCheckoutConflicts)

		// nothing moved
		head, headErr := s.Repo.Head()
		require.NoError(t, headErr)
		require.Equal(t, second, head.Hash())
		require.Equal(t, "local\n", s.ReadFile("a.txt"))
	})

	t.Run("fails on a missing commit", func(t *testing.T) {
		s := testhelpers.NewScene(t)
		err := s.Repo.CheckoutTree(ctx, plumbing.NewHash("0123456789abcdef0123456789abcdef01234567"))
		require.Error(t, err)
	})
}
