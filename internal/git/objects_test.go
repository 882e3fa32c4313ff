package git_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/stretchr/testify/require"

	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/git"
	"patchkit.dev/patchkit/testhelpers"
)

func TestWriteBlob(t *testing.T) {
	t.Parallel()

	s := testhelpers.NewScene(t)

	id, err := s.Repo.WriteBlob([]byte("hello\n"))
	require.NoError(t, err)
	require.False(t, id.IsZero())

	data, err := s.Repo.BlobContent(id)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(data))
}

func TestWriteTreeFromEntries(t *testing.T) {
	t.Parallel()

	s := testhelpers.NewScene(t)

	blob := func(content string) plumbing.Hash {
		id, err := s.Repo.WriteBlob([]byte(content))
		require.NoError(t, err)
		return id
	}

	t.Run("round trips nested directories", func(t *testing.T) {
		entries := map[string]git.Entry{
			"top.txt":        {Mode: filemode.Regular, Hash: blob("top\n")},
			"dir/mid.txt":    {Mode: filemode.Regular, Hash: blob("mid\n")},
			"dir/sub/low.sh": {Mode: filemode.Executable, Hash: blob("#!/bin/sh\n")},
		}

		tree, err := s.Repo.WriteTreeFromEntries(entries)
		require.NoError(t, err)

		got, err := s.Repo.TreeEntries(tree)
		require.NoError(t, err)
		require.Equal(t, entries, got)
	})

	t.Run("writes identical trees for identical content", func(t *testing.T) {
		entries := map[string]git.Entry{
			"a.txt": {Mode: filemode.Regular, Hash: blob("a\n")},
			"b.txt": {Mode: filemode.Regular, Hash: blob("b\n")},
		}

		first, err := s.Repo.WriteTreeFromEntries(entries)
		require.NoError(t, err)
		second, err := s.Repo.WriteTreeFromEntries(entries)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("orders directory names as if slash-terminated", func(t *testing.T) {
		entries := map[string]git.Entry{
			"a.txt":   {Mode: filemode.Regular, Hash: blob("1\n")},
			"a/b.txt": {Mode: filemode.Regular, Hash: blob("2\n")},
			"a0.txt":  {Mode: filemode.Regular, Hash: blob("3\n")},
		}

		tree, err := s.Repo.WriteTreeFromEntries(entries)
		require.NoError(t, err)

		treeObj, err := s.Repo.TreeObject(tree)
		require.NoError(t, err)
		names := make([]string, 0, len(treeObj.Entries))
		for _, e := range treeObj.Entries {
			names = append(names, e.Name)
		}
		require.Equal(t, []string{"a.txt", "a", "a0.txt"}, names)
	})
}

func TestCommitTree(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("writes a commit with message, tree and parents", func(t *testing.T) {
		s := testhelpers.NewScene(t)
		base := s.Head()

		sig := s.Signature()
		id, err := s.Repo.CommitTree(ctx, git.CommitSpec{
			Author:    sig,
			Committer: sig,
			Message:   "subject line\n\nbody text\n",
			Tree:      s.TreeOf(base),
			Parents:   []plumbing.Hash{base},
		})
		require.NoError(t, err)

		commit, err := s.Repo.Commit(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "subject line\n\nbody text\n", commit.Message)
		require.Equal(t, s.TreeOf(base), commit.TreeHash)
		require.Equal(t, []plumbing.Hash{base}, commit.ParentHashes)
		require.Equal(t, sig.Name, commit.Author.Name)
		require.Equal(t, sig.Email, commit.Author.Email)
	})

	t.Run("fails to sign without a key", func(t *testing.T) {
		s := testhelpers.NewScene(t)
		base := s.Head()

		sig := s.Signature()
		_, err := s.Repo.CommitTree(ctx, git.CommitSpec{
			Author:    sig,
			Committer: sig,
			Message:   "signed\n",
			Tree:      s.TreeOf(base),
			Parents:   []plumbing.Hash{base},
			Sign:      true,
		})
		require.ErrorIs(t, err, errors.ErrSigningKeyMissing)
	})

	t.Run("produces a verifiable signature", func(t *testing.T) {
		s := testhelpers.NewScene(t)
		base := s.Head()

		entity, err := openpgp.NewEntity("Test User", "", "test@example.com", &packet.Config{
			Algorithm: packet.PubKeyAlgoEdDSA,
		})
		require.NoError(t, err)
		s.Repo.SetSigner(entity)

		sig := s.Signature()
		id, err := s.Repo.CommitTree(ctx, git.CommitSpec{
			Author:    sig,
			Committer: sig,
			Message:   "signed\n",
			Tree:      s.TreeOf(base),
			Parents:   []plumbing.Hash{base},
			Sign:      true,
		})
		require.NoError(t, err)

		commit, err := s.Repo.Commit(ctx, id)
		require.NoError(t, err)
		require.Contains(t, commit.PGPSignature, "BEGIN PGP SIGNATURE")

		var pub bytes.Buffer
		aw, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
		require.NoError(t, err)
		require.NoError(t, entity.Serialize(aw))
		require.NoError(t, aw.Close())

		verified, err := commit.Verify(pub.String())
		require.NoError(t, err)
		require.NotNil(t, verified)
	})
}
