package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"patchkit.dev/patchkit/testhelpers"
)

func TestWorktreeTree(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("matches the head tree when nothing changed", func(t *testing.T) {
		t.Parallel()
		s := testhelpers.NewScene(t)
		head := s.Commit(map[string]string{"a.txt": "one\n"}, "add a")

		tree, err := s.Repo.WorktreeTree(ctx)
		require.NoError(t, err)
		require.Equal(t, s.TreeOf(head), tree)
	})

	t.Run("picks up unstaged modifications", func(t *testing.T) {
		t.Parallel()
		s := testhelpers.NewScene(t)
		s.Commit(map[string]string{"a.txt": "one\n"}, "add a")
		s.WriteFileUnstaged("a.txt", "changed\n")

		tree, err := s.Repo.WorktreeTree(ctx)
		require.NoError(t, err)

		entries, err := s.Repo.TreeEntries(tree)
		require.NoError(t, err)
		data, err := s.Repo.BlobContent(entries["a.txt"].Hash)
		require.NoError(t, err)
		require.Equal(t, "changed\n", string(data))
	})

	t.Run("includes staged additions but not untracked files", func(t *testing.T) {
		t.Parallel()
		s := testhelpers.NewScene(t)
		s.Commit(map[string]string{"a.txt": "one\n"}, "add a")
		s.WriteFile("staged.txt", "staged\n")
		s.WriteFileUnstaged("loose.txt", "loose\n")

		tree, err := s.Repo.WorktreeTree(ctx)
		require.NoError(t, err)

		entries, err := s.Repo.TreeEntries(tree)
		require.NoError(t, err)
		require.Contains(t, entries, "staged.txt")
		require.NotContains(t, entries, "loose.txt")
	})

	t.Run("drops deleted files", func(t *testing.T) {
		t.Parallel()
		s := testhelpers.NewScene(t)
		s.Commit(map[string]string{"a.txt": "one\n", "b.txt": "two\n"}, "add files")
		require.NoError(t, s.FS.Remove("b.txt"))

		tree, err := s.Repo.WorktreeTree(ctx)
		require.NoError(t, err)

		entries, err := s.Repo.TreeEntries(tree)
		require.NoError(t, err)
		require.NotContains(t, entries, "b.txt")
		require.Contains(t, entries, "a.txt")
	})
}

func TestResetIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unstages without touching worktree files", func(t *testing.T) {
		t.Parallel()
		s := testhelpers.NewScene(t)
		head := s.Commit(map[string]string{"a.txt": "one\n"}, "add a")
		s.WriteFile("a.txt", "staged change\n")

		clean, err := s.Repo.IsIndexClean()
		require.NoError(t, err)
		require.False(t, clean)

		require.NoError(t, s.Repo.ResetIndex(ctx, head))

		clean, err = s.Repo.IsIndexClean()
		require.NoError(t, err)
		require.True(t, clean)
		require.Equal(t, "staged change\n", s.ReadFile("a.txt"))
	})
}

func TestIsIndexClean(t *testing.T) {
	t.Parallel()

	t.Run("unstaged and untracked changes do not dirty the index", func(t *testing.T) {
		t.Parallel()
		s := testhelpers.NewScene(t)
		s.Commit(map[string]string{"a.txt": "one\n"}, "add a")
		s.WriteFileUnstaged("a.txt", "edited\n")
		s.WriteFileUnstaged("new.txt", "untracked\n")

		clean, err := s.Repo.IsIndexClean()
		require.NoError(t, err)
		require.True(t, clean)
	})
}
