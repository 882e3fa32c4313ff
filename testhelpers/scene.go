// Package testhelpers provides testing utilities for Patchkit, built around
// in-memory git repositories so tests never touch the host filesystem.
package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"

	"patchkit.dev/patchkit/internal/git"
)

// Scene is an in-memory git repository seeded with one commit, plus helpers
// for building the commit shapes stack tests need.
type Scene struct {
	T      *testing.T
	FS     billy.Filesystem
	Repo   *git.Repository
	Branch string

	worktree *gogit.Worktree
	clock    time.Time
}

// NewScene builds an in-memory repository with an initial commit on master.
func NewScene(t *testing.T) *Scene {
	t.Helper()

	fs := memfs.New()
	repo, err := gogit.Init(memory.NewStorage(), fs)
	require.NoError(t, err)

	cfg, err := repo.Config()
	require.NoError(t, err)
	cfg.User.Name = "Test User"
	cfg.User.Email = "test@example.com"
	require.NoError(t, repo.SetConfig(cfg))

	wt, err := repo.Worktree()
	require.NoError(t, err)

	s := &Scene{
		T:        t,
		FS:       fs,
		Repo:     git.Wrap(repo),
		Branch:   "master",
		worktree: wt,
		clock:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	s.Commit(map[string]string{"README.md": "initial\n"}, "initial commit")
	return s
}

// Signature returns the test identity. The clock advances one minute per
// call so seeded commits get distinct timestamps.
func (s *Scene) Signature() object.Signature {
	s.clock = s.clock.Add(time.Minute)
	return object.Signature{Name: "Test User", Email: "test@example.com", When: s.clock}
}

// WriteFile writes a worktree file and stages it.
func (s *Scene) WriteFile(path, content string) *Scene {
	s.T.Helper()
	f, err := s.FS.Create(path)
	require.NoError(s.T, err)
	_, err = f.Write([]byte(content))
	require.NoError(s.T, err)
	require.NoError(s.T, f.Close())
	_, err = s.worktree.Add(path)
	require.NoError(s.T, err)
	return s
}

// WriteFileUnstaged writes a worktree file without staging it.
func (s *Scene) WriteFileUnstaged(path, content string) *Scene {
	s.T.Helper()
	f, err := s.FS.Create(path)
	require.NoError(s.T, err)
	_, err = f.Write([]byte(content))
	require.NoError(s.T, err)
	require.NoError(s.T, f.Close())
	return s
}

// ReadFile returns a worktree file's content.
func (s *Scene) ReadFile(path string) string {
	s.T.Helper()
	f, err := s.FS.Open(path)
	require.NoError(s.T, err)
	defer f.Close()
	data := make([]byte, 0, 256)
	buf := make([]byte, 256)
	for {
		n, err := f.Read(buf)
		data = append(data, buf[:n]...)
		if err != nil {
			break
		}
	}
	return string(data)
}

// Commit writes files, stages them and commits on the current branch.
func (s *Scene) Commit(files map[string]string, message string) plumbing.Hash {
	s.T.Helper()
	for path, content := range files {
		s.WriteFile(path, content)
	}
	sig := s.Signature()
	id, err := s.worktree.Commit(message, &gogit.CommitOptions{Author: &sig, Committer: &sig})
	require.NoError(s.T, err)
	return id
}

// CommitOn builds a commit object on top of parent without touching any ref
// or the worktree. Used to seed patches that are not on the branch.
func (s *Scene) CommitOn(parent plumbing.Hash, files map[string]string, message string) plumbing.Hash {
	s.T.Helper()
	entries := s.EntriesOf(parent)
	for path, content := range files {
		blob, err := s.Repo.WriteBlob([]byte(content))
		require.NoError(s.T, err)
		entries[path] = git.Entry{Mode: filemode.Regular, Hash: blob}
	}
	return s.commitEntries(parent, entries, message)
}

// CommitDeleting builds a commit on top of parent that removes paths.
func (s *Scene) CommitDeleting(parent plumbing.Hash, message string, paths ...string) plumbing.Hash {
	s.T.Helper()
	entries := s.EntriesOf(parent)
	for _, path := range paths {
		require.Contains(s.T, entries, path)
		delete(entries, path)
	}
	return s.commitEntries(parent, entries, message)
}

func (s *Scene) commitEntries(parent plumbing.Hash, entries map[string]git.Entry, message string) plumbing.Hash {
	s.T.Helper()
	tree, err := s.Repo.WriteTreeFromEntries(entries)
	require.NoError(s.T, err)
	sig := s.Signature()
	id, err := s.Repo.CommitTree(context.Background(), git.CommitSpec{
		Author:    sig,
		Committer: sig,
		Message:   message,
		Tree:      tree,
		Parents:   []plumbing.Hash{parent},
	})
	require.NoError(s.T, err)
	return id
}

// Head returns the current branch head.
func (s *Scene) Head() plumbing.Hash {
	s.T.Helper()
	ref, err := s.Repo.Head()
	require.NoError(s.T, err)
	return ref.Hash()
}

// TreeOf returns the tree id of a commit.
func (s *Scene) TreeOf(commit plumbing.Hash) plumbing.Hash {
	s.T.Helper()
	c, err := s.Repo.Commit(context.Background(), commit)
	require.NoError(s.T, err)
	return c.TreeHash
}

// EntriesOf returns the flattened tree entries of a commit.
func (s *Scene) EntriesOf(commit plumbing.Hash) map[string]git.Entry {
	s.T.Helper()
	entries, err := s.Repo.TreeEntries(s.TreeOf(commit))
	require.NoError(s.T, err)
	return entries
}

// FileAt returns a file's content in the tree of a commit.
func (s *Scene) FileAt(commit plumbing.Hash, path string) string {
	s.T.Helper()
	entries := s.EntriesOf(commit)
	entry, ok := entries[path]
	require.True(s.T, ok, "commit %s has no file %q", commit, path)
	data, err := s.Repo.BlobContent(entry.Hash)
	require.NoError(s.T, err)
	return string(data)
}

// HasFile reports whether a commit's tree contains path.
func (s *Scene) HasFile(commit plumbing.Hash, path string) bool {
	s.T.Helper()
	_, ok := s.EntriesOf(commit)[path]
	return ok
}

// MessageOf returns a commit's full message.
func (s *Scene) MessageOf(commit plumbing.Hash) string {
	s.T.Helper()
	c, err := s.Repo.Commit(context.Background(), commit)
	require.NoError(s.T, err)
	return c.Message
}

// AuthorOf returns a commit's author signature.
func (s *Scene) AuthorOf(commit plumbing.Hash) object.Signature {
	s.T.Helper()
	c, err := s.Repo.Commit(context.Background(), commit)
	require.NoError(s.T, err)
	return c.Author
}

// ParentsOf returns a commit's parent ids.
func (s *Scene) ParentsOf(commit plumbing.Hash) []plumbing.Hash {
	s.T.Helper()
	c, err := s.Repo.Commit(context.Background(), commit)
	require.NoError(s.T, err)
	return c.ParentHashes
}
