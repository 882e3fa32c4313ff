package engine_test

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/git"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/testhelpers"
)

func match(names ...string) func(stack.PatchName) bool {
	return func(name stack.PatchName) bool {
		for _, n := range names {
			if name.String() == n {
				return true
			}
		}
		return false
	}
}

func TestTransactionExecute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists nothing before execute", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")

		txn := s.Begin(engine.Options{})
		_, err := txn.PopPatches(ctx, match("p1"))
		require.NoError(t, err)

		testhelpers.ExpectSeries(t, s.Reload(), []string{"p1"}, nil, nil)
		testhelpers.ExpectSeries(t, s.Stack, []string{"p1"}, nil, nil)

		require.NoError(t, txn.Execute(ctx, "pop p1"))

		testhelpers.ExpectSeries(t, s.Reload(), nil, []string{"p1"}, nil)
		testhelpers.ExpectSeries(t, s.Stack, nil, []string{"p1"}, nil)
	})

	t.Run("refuses a second execute", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.Execute(ctx, "noop"))

		require.ErrorIs(t, txn.Execute(ctx, "again"), errors.ErrTransactionExecuted)
		require.ErrorIs(t, txn.PushPatches(ctx, testhelpers.Names("p1"), false), errors.ErrTransactionExecuted)
	})

	t.Run("records the message in the state log", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")

		txn := s.Begin(engine.Options{})
		_, err := txn.PopPatches(ctx, match("p1"))
		require.NoError(t, err)
		require.NoError(t, txn.Execute(ctx, "pop p1"))

		entries, err := s.Repo.StateLog(ctx, s.Branch, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "pop p1", entries[0].Message)
	})

	t.Run("branch ref follows the stack head", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")
		require.Equal(t, s.Stack.Head, s.Head())

		txn := s.Begin(engine.Options{})
		_, err := txn.PopPatches(ctx, match("p1"))
		require.NoError(t, err)
		require.NoError(t, txn.Execute(ctx, "pop p1"))

		require.Equal(t, s.Stack.Base, s.Head())
	})

	t.Run("stack returns an isolated snapshot", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")

		txn := s.Begin(engine.Options{})
		snap := txn.Stack()
		snap.Applied[0] = "zz"

		require.Equal(t, testhelpers.Names("p1"), txn.Stack().Applied)
	})
}

func TestNewPatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("new applied lands on top and advances the head", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")
		id := s.CommitOn(s.Stack.Head, map[string]string{"b.txt": "bravo\n"}, "p2: add b")

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.NewApplied(ctx, "p2", id))
		require.NoError(t, txn.Execute(ctx, "new p2"))

		got := s.Reload()
		testhelpers.ExpectSeries(t, got, []string{"p1", "p2"}, nil, nil)
		require.Equal(t, id, got.Head)
		require.Equal(t, id, got.Patches["p2"])
	})

	t.Run("new applied must continue the stack head", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")
		stray := s.CommitOn(s.Stack.Base, map[string]string{"b.txt": "bravo\n"}, "stray")

		txn := s.Begin(engine.Options{})
		require.Error(t, txn.NewApplied(ctx, "p2", stray))
	})

	t.Run("new unapplied honors the insertion index", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		base := s.Stack.Base
		s.SeedUnapplied("u1", s.CommitOn(base, map[string]string{"u1.txt": "1\n"}, "u1"))
		s.SeedUnapplied("u2", s.CommitOn(base, map[string]string{"u2.txt": "2\n"}, "u2"))

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.NewUnapplied(ctx, "front", s.CommitOn(base, nil, "front"), 0))
		require.NoError(t, txn.NewUnapplied(ctx, "mid", s.CommitOn(base, nil, "mid"), 2))
		require.NoError(t, txn.NewUnapplied(ctx, "back", s.CommitOn(base, nil, "back"), -1))
		require.NoError(t, txn.NewUnapplied(ctx, "far", s.CommitOn(base, nil, "far"), 99))
		require.NoError(t, txn.Execute(ctx, "new patches"))

		testhelpers.ExpectSeries(t, s.Reload(), nil,
			[]string{"front", "u1", "mid", "u2", "back", "far"}, nil)
	})

	t.Run("rejects colliding and invalid names", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")
		id := s.CommitOn(s.Stack.Head, map[string]string{"b.txt": "bravo\n"}, "next")

		txn := s.Begin(engine.Options{})
		require.ErrorIs(t, txn.NewApplied(ctx, "p1", id), errors.ErrNameCollision)
		require.ErrorIs(t, txn.NewUnapplied(ctx, "p1", id, -1), errors.ErrNameCollision)
		require.ErrorIs(t, txn.NewUnapplied(ctx, "has space", id, -1), errors.ErrInvalidPatchName)
	})
}

func TestPushPatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("replays a patch onto the moved base", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")
		original := s.CommitOn(s.Stack.Base, map[string]string{"b.txt": "bravo\n"}, "p2: add b")
		s.SeedUnapplied("p2", original)

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.PushPatches(ctx, testhelpers.Names("p2"), false))
		require.NoError(t, txn.Execute(ctx, "push p2"))

		got := s.Reload()
		testhelpers.ExpectSeries(t, got, []string{"p1", "p2"}, nil, nil)

		rewritten := got.Patches["p2"]
		require.NotEqual(t, original, rewritten)
		require.Equal(t, []plumbing.Hash{s.PatchID("p1")}, s.ParentsOf(rewritten))
		require.Equal(t, "p2: add b", s.MessageOf(rewritten))
		require.Equal(t, s.AuthorOf(original), s.AuthorOf(rewritten))
		require.Equal(t, "alpha\n", s.FileAt(rewritten, "a.txt"))
		require.Equal(t, "bravo\n", s.FileAt(rewritten, "b.txt"))
		require.Equal(t, rewritten, got.Head)
	})

	t.Run("reuses the stored commit when the base has not moved", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")
		s.SeedApplied("p2", map[string]string{"b.txt": "bravo\n"}, "p2: add b")
		original := s.PatchID("p2")

		txn := s.Begin(engine.Options{})
		_, err := txn.PopPatches(ctx, match("p2"))
		require.NoError(t, err)
		require.NoError(t, txn.PushPatches(ctx, testhelpers.Names("p2"), false))
		require.NoError(t, txn.Execute(ctx, "nop"))

		require.Equal(t, original, s.Reload().Patches["p2"])
	})

	t.Run("pop then push round trips the whole stack", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")
		s.SeedApplied("p2", map[string]string{"b.txt": "bravo\n"}, "p2: add b")
		s.SeedApplied("p3", map[string]string{"c.txt": "charlie\n"}, "p3: add c")
		ids := map[string]plumbing.Hash{
			"p1": s.PatchID("p1"), "p2": s.PatchID("p2"), "p3": s.PatchID("p3"),
		}

		txn := s.Begin(engine.Options{})
		popped, err := txn.PopPatches(ctx, match("p1"))
		require.NoError(t, err)
		require.Equal(t, testhelpers.Names("p1", "p2", "p3"), popped)

		require.NoError(t, txn.PushPatches(ctx, popped, false))
		require.NoError(t, txn.Execute(ctx, "round trip"))

		got := s.Reload()
		testhelpers.ExpectSeries(t, got, []string{"p1", "p2", "p3"}, nil, nil)
		for name, id := range ids {
			require.Equal(t, id, got.Patches[stack.PatchName(name)], "patch %s was rewritten", name)
		}
	})

	t.Run("keeps an empty patch empty", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		empty := s.CommitOn(s.Stack.Base, nil, "empty patch")
		s.SeedUnapplied("pe", empty)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.PushPatches(ctx, testhelpers.Names("pe"), false))
		require.NoError(t, txn.Execute(ctx, "push pe"))

		got := s.Reload()
		require.Equal(t, s.TreeOf(s.PatchID("p1")), s.TreeOf(got.Patches["pe"]))
	})

	t.Run("pushes an already contained patch as empty with the merged check", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		duplicate := s.CommitOn(s.Stack.Base, map[string]string{"shared.txt": "same\n"}, "duplicate change")
		s.SeedUnapplied("dup", duplicate)
		s.SeedApplied("p1", map[string]string{"shared.txt": "same\n"}, "p1: add shared")

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.PushPatches(ctx, testhelpers.Names("dup"), true))
		require.NoError(t, txn.Execute(ctx, "push dup"))

		got := s.Reload()
		testhelpers.ExpectSeries(t, got, []string{"p1", "dup"}, nil, nil)
		require.Equal(t, s.TreeOf(s.PatchID("p1")), s.TreeOf(got.Patches["dup"]))
	})

	t.Run("a conflicting push is recorded and stops the batch", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("pa", map[string]string{"x.txt": "ours\n"}, "pa: ours")
		s.SeedUnapplied("pb", s.CommitOn(s.Stack.Base, map[string]string{"x.txt": "theirs\n"}, "pb: theirs"))
		s.SeedUnapplied("pc", s.CommitOn(s.Stack.Base, map[string]string{"c.txt": "c\n"}, "pc: add c"))

		txn := s.Begin(engine.Options{AllowConflicts: true})
		err := txn.PushPatches(ctx, testhelpers.Names("pb", "pc"), false)

		var conflict *errors.PushConflictError
		require.ErrorAs(t, err, &conflict)
		require.ErrorIs(t, err, errors.ErrPushConflict)
		require.Equal(t, "pb", conflict.Patch)
		require.Equal(t, []string{"x.txt"}, conflict.Paths)
		require.Equal(t, []string{"pb"}, txn.Conflicts())

		// pb is applied with the conflicted tree, pc never moved
		testhelpers.ExpectSeries(t, txn.Stack(), []string{"pa", "pb"}, []string{"pc"}, nil)

		// nothing else can be pushed onto a conflicted tree
		require.ErrorIs(t, txn.PushPatches(ctx, testhelpers.Names("pc"), false), errors.ErrPushConflict)

		require.NoError(t, txn.Execute(ctx, "push"))

		got := s.Reload()
		testhelpers.ExpectSeries(t, got, []string{"pa", "pb"}, []string{"pc"}, nil)
		content := s.FileAt(got.Head, "x.txt")
		require.Contains(t, content, "<<<<<<< current")
		require.Contains(t, content, "ours")
		require.Contains(t, content, "theirs")
		require.Contains(t, content, ">>>>>>> patched")

		entries, err := s.Repo.StateLog(ctx, s.Branch, 1)
		require.NoError(t, err)
		require.Equal(t, "push (CONFLICT)", entries[0].Message)
	})

	t.Run("a conflict poisons the transaction when not allowed", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("pa", map[string]string{"x.txt": "ours\n"}, "pa: ours")
		s.SeedUnapplied("pb", s.CommitOn(s.Stack.Base, map[string]string{"x.txt": "theirs\n"}, "pb: theirs"))

		txn := s.Begin(engine.Options{})
		err := txn.PushPatches(ctx, testhelpers.Names("pb"), false)
		require.ErrorIs(t, err, errors.ErrPushConflict)

		_, popErr := txn.PopPatches(ctx, match("pa"))
		require.ErrorIs(t, popErr, errors.ErrTransactionAborted)

		execErr := txn.Execute(ctx, "push pb")
		require.ErrorIs(t, execErr, errors.ErrTransactionAborted)
		require.ErrorIs(t, execErr, errors.ErrPushConflict)

		testhelpers.ExpectSeries(t, s.Reload(), []string{"pa"}, []string{"pb"}, nil)
	})

	t.Run("rejects applied and unknown patches", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("pa", map[string]string{"a.txt": "alpha\n"}, "pa")

		txn := s.Begin(engine.Options{})
		require.ErrorIs(t, txn.PushPatches(ctx, testhelpers.Names("pa"), false), errors.ErrInvalidSelection)
		require.ErrorIs(t, txn.PushPatches(ctx, testhelpers.Names("nope"), false), errors.ErrPatchNotFound)
	})

	t.Run("stamps the committer date from the author when configured", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1: add a")
		s.SeedUnapplied("p2", s.CommitOn(s.Stack.Base, map[string]string{"b.txt": "bravo\n"}, "p2: add b"))

		txn := s.Begin(engine.Options{CommitterDateIsAuthorDate: true})
		require.NoError(t, txn.PushPatches(ctx, testhelpers.Names("p2"), false))
		require.NoError(t, txn.Execute(ctx, "push p2"))

		commit, err := s.Repo.Commit(ctx, s.Reload().Patches["p2"])
		require.NoError(t, err)
		require.True(t, commit.Committer.When.Equal(commit.Author.When))
	})
}

func TestPopPatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("pops everything at and above the lowest match", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")
		s.SeedApplied("p2", map[string]string{"b.txt": "bravo\n"}, "p2")
		s.SeedApplied("p3", map[string]string{"c.txt": "charlie\n"}, "p3")
		s.SeedUnapplied("u1", s.CommitOn(s.Stack.Base, map[string]string{"u.txt": "u\n"}, "u1"))

		txn := s.Begin(engine.Options{})
		popped, err := txn.PopPatches(ctx, match("p2"))
		require.NoError(t, err)
		require.Equal(t, testhelpers.Names("p2", "p3"), popped)

		work := txn.Stack()
		testhelpers.ExpectSeries(t, work, []string{"p1"}, []string{"p2", "p3", "u1"}, nil)
		require.Equal(t, s.PatchID("p1"), work.Head)
	})

	t.Run("returns nothing when no applied patch matches", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")

		txn := s.Begin(engine.Options{})
		popped, err := txn.PopPatches(ctx, match("u1"))
		require.NoError(t, err)
		require.Empty(t, popped)
		testhelpers.ExpectSeries(t, txn.Stack(), []string{"p1"}, nil, nil)
	})
}

func TestDeletePatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("deleting a buried patch displaces the ones above it", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")
		s.SeedApplied("p2", map[string]string{"b.txt": "bravo\n"}, "p2")
		s.SeedApplied("p3", map[string]string{"c.txt": "charlie\n"}, "p3")

		txn := s.Begin(engine.Options{})
		displaced, err := txn.DeletePatches(ctx, match("p1"))
		require.NoError(t, err)
		require.Equal(t, testhelpers.Names("p2", "p3"), displaced)

		work := txn.Stack()
		testhelpers.ExpectSeries(t, work, nil, []string{"p2", "p3"}, nil)
		require.Equal(t, work.Base, work.Head)
		require.NotContains(t, work.Patches, stack.PatchName("p1"))

		require.NoError(t, txn.Execute(ctx, "delete p1"))

		_, refErr := s.Repo.Reference(git.PatchRefName(s.Branch, "p1"), true)
		require.ErrorIs(t, refErr, plumbing.ErrReferenceNotFound)
		for _, name := range []string{"p2", "p3"} {
			_, err := s.Repo.Reference(git.PatchRefName(s.Branch, stack.PatchName(name)), true)
			require.NoError(t, err)
		}
	})

	t.Run("deletes unapplied and hidden patches in place", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		base := s.Stack.Base
		s.SeedUnapplied("u1", s.CommitOn(base, map[string]string{"u.txt": "u\n"}, "u1"))
		s.SeedHidden("h1", s.CommitOn(base, map[string]string{"h.txt": "h\n"}, "h1"))

		txn := s.Begin(engine.Options{})
		displaced, err := txn.DeletePatches(ctx, match("u1", "h1"))
		require.NoError(t, err)
		require.Empty(t, displaced)
		require.NoError(t, txn.Execute(ctx, "delete u1 h1"))

		got := s.Reload()
		testhelpers.ExpectSeries(t, got, nil, nil, nil)
		for _, name := range []string{"u1", "h1"} {
			_, refErr := s.Repo.Reference(git.PatchRefName(s.Branch, stack.PatchName(name)), true)
			require.ErrorIs(t, refErr, plumbing.ErrReferenceNotFound)
		}
	})
}

func TestUpdatePatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("updates the top patch and the head", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")
		s.SeedApplied("p2", map[string]string{"b.txt": "bravo\n"}, "p2")
		amended := s.CommitOn(s.PatchID("p1"), map[string]string{"b.txt": "BRAVO\n"}, "p2 amended")

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.UpdatePatch(ctx, "p2", amended))
		require.NoError(t, txn.Execute(ctx, "refresh p2"))

		got := s.Reload()
		require.Equal(t, amended, got.Patches["p2"])
		require.Equal(t, amended, got.Head)
		require.Equal(t, amended, s.Head())
	})

	t.Run("refuses a patch buried in the applied group", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")
		s.SeedApplied("p2", map[string]string{"b.txt": "bravo\n"}, "p2")
		amended := s.CommitOn(s.Stack.Base, map[string]string{"a.txt": "ALPHA\n"}, "p1 amended")

		txn := s.Begin(engine.Options{})
		require.ErrorIs(t, txn.UpdatePatch(ctx, "p1", amended), errors.ErrInvalidSelection)
	})

	t.Run("rebinding an unapplied patch leaves the head alone", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")
		s.SeedUnapplied("u1", s.CommitOn(s.Stack.Base, map[string]string{"u.txt": "u\n"}, "u1"))
		head := s.Stack.Head
		rebound := s.CommitOn(s.Stack.Base, map[string]string{"u.txt": "U\n"}, "u1 v2")

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.UpdatePatch(ctx, "u1", rebound))
		require.NoError(t, txn.Execute(ctx, "refresh u1"))

		got := s.Reload()
		require.Equal(t, rebound, got.Patches["u1"])
		require.Equal(t, head, got.Head)
	})

	t.Run("unknown patches are rejected", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		txn := s.Begin(engine.Options{})
		require.ErrorIs(t, txn.UpdatePatch(ctx, "ghost", s.Stack.Base), errors.ErrPatchNotFound)
	})
}

func TestHideAndUnhide(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("hide moves unapplied patches out of the way", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		base := s.Stack.Base
		s.SeedUnapplied("u1", s.CommitOn(base, map[string]string{"u1.txt": "1\n"}, "u1"))
		s.SeedUnapplied("u2", s.CommitOn(base, map[string]string{"u2.txt": "2\n"}, "u2"))

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.HidePatches(ctx, testhelpers.Names("u2")))
		require.NoError(t, txn.Execute(ctx, "hide u2"))

		testhelpers.ExpectSeries(t, s.Reload(), nil, []string{"u1"}, []string{"u2"})
	})

	t.Run("hiding an applied patch is refused", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")

		txn := s.Begin(engine.Options{})
		require.ErrorIs(t, txn.HidePatches(ctx, testhelpers.Names("p1")), errors.ErrInvalidSelection)
	})

	t.Run("hiding an already hidden patch is a no-op", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedHidden("h1", s.CommitOn(s.Stack.Base, map[string]string{"h.txt": "h\n"}, "h1"))

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.HidePatches(ctx, testhelpers.Names("h1")))
		testhelpers.ExpectSeries(t, txn.Stack(), nil, nil, []string{"h1"})
	})

	t.Run("unhide appends to the end of unapplied", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		base := s.Stack.Base
		s.SeedUnapplied("u1", s.CommitOn(base, map[string]string{"u1.txt": "1\n"}, "u1"))
		s.SeedHidden("h1", s.CommitOn(base, map[string]string{"h.txt": "h\n"}, "h1"))

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.UnhidePatches(ctx, testhelpers.Names("h1")))
		require.NoError(t, txn.Execute(ctx, "unhide h1"))

		testhelpers.ExpectSeries(t, s.Reload(), nil, []string{"u1", "h1"}, nil)
	})

	t.Run("unhiding a visible patch is refused", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedUnapplied("u1", s.CommitOn(s.Stack.Base, map[string]string{"u.txt": "u\n"}, "u1"))

		txn := s.Begin(engine.Options{})
		require.ErrorIs(t, txn.UnhidePatches(ctx, testhelpers.Names("u1")), errors.ErrInvalidSelection)
	})
}

func TestRenamePatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("renames in place and moves the patch ref", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")
		s.SeedApplied("p2", map[string]string{"b.txt": "bravo\n"}, "p2")
		s.SeedApplied("p3", map[string]string{"c.txt": "charlie\n"}, "p3")
		id := s.PatchID("p2")

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.RenamePatch(ctx, "p2", "renamed"))
		require.NoError(t, txn.Execute(ctx, "rename p2"))

		got := s.Reload()
		testhelpers.ExpectSeries(t, got, []string{"p1", "renamed", "p3"}, nil, nil)
		require.Equal(t, id, got.Patches["renamed"])

		_, refErr := s.Repo.Reference(git.PatchRefName(s.Branch, "p2"), true)
		require.ErrorIs(t, refErr, plumbing.ErrReferenceNotFound)
		ref, err := s.Repo.Reference(git.PatchRefName(s.Branch, "renamed"), true)
		require.NoError(t, err)
		require.Equal(t, id, ref.Hash())
	})

	t.Run("a name freed by rename can be reused in the same transaction", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedUnapplied("u1", s.CommitOn(s.Stack.Base, map[string]string{"u.txt": "u\n"}, "u1"))
		other := s.CommitOn(s.Stack.Base, map[string]string{"v.txt": "v\n"}, "v")

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.RenamePatch(ctx, "u1", "moved"))
		require.NoError(t, txn.NewUnapplied(ctx, "u1", other, -1))
		require.NoError(t, txn.Execute(ctx, "rename and reuse"))

		ref, err := s.Repo.Reference(git.PatchRefName(s.Branch, "u1"), true)
		require.NoError(t, err)
		require.Equal(t, other, ref.Hash())
	})

	t.Run("rejects collisions, unknown names and invalid names", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		base := s.Stack.Base
		s.SeedUnapplied("u1", s.CommitOn(base, map[string]string{"u1.txt": "1\n"}, "u1"))
		s.SeedUnapplied("u2", s.CommitOn(base, map[string]string{"u2.txt": "2\n"}, "u2"))

		txn := s.Begin(engine.Options{})
		require.ErrorIs(t, txn.RenamePatch(ctx, "u1", "u2"), errors.ErrNameCollision)
		require.ErrorIs(t, txn.RenamePatch(ctx, "ghost", "new"), errors.ErrPatchNotFound)
		require.ErrorIs(t, txn.RenamePatch(ctx, "u1", "bad name"), errors.ErrInvalidPatchName)
	})
}

func TestResetToState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("restores an earlier recorded state", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")
		s.SeedApplied("p2", map[string]string{"b.txt": "bravo\n"}, "p2")
		wantHead := s.Stack.Head

		txn := s.Begin(engine.Options{})
		_, err := txn.PopPatches(ctx, match("p2"))
		require.NoError(t, err)
		require.NoError(t, txn.Execute(ctx, "pop p2"))

		entries, err := s.Repo.StateLog(ctx, s.Branch, 2)
		require.NoError(t, err)
		require.Equal(t, "pop p2", entries[0].Message)
		require.Equal(t, "new p2", entries[1].Message)

		undo := s.Begin(engine.Options{})
		require.NoError(t, undo.ResetToState(ctx, entries[1].State))
		require.NoError(t, undo.Execute(ctx, "undo pop p2"))

		got := s.Reload()
		testhelpers.ExpectSeries(t, got, []string{"p1", "p2"}, nil, nil)
		require.Equal(t, wantHead, got.Head)
		require.Equal(t, wantHead, s.Head())
	})

	t.Run("drops refs for patches missing from the restored state", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")

		entries, err := s.Repo.StateLog(ctx, s.Branch, 0)
		require.NoError(t, err)
		initial := entries[len(entries)-1]
		require.Equal(t, "initialize", initial.Message)

		txn := s.Begin(engine.Options{})
		require.NoError(t, txn.ResetToState(ctx, initial.State))
		require.NoError(t, txn.Execute(ctx, "undo new p1"))

		got := s.Reload()
		testhelpers.ExpectSeries(t, got, nil, nil, nil)
		require.Equal(t, got.Base, got.Head)

		_, refErr := s.Repo.Reference(git.PatchRefName(s.Branch, "p1"), true)
		require.ErrorIs(t, refErr, plumbing.ErrReferenceNotFound)
	})
}

func TestTransactionCheckout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("updates the worktree after execute", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedApplied("p1", map[string]string{"a.txt": "alpha\n"}, "p1")
		s.SeedUnapplied("u1", s.CommitOn(s.Stack.Base, map[string]string{"n.txt": "new\n"}, "u1"))

		txn := s.Begin(engine.Options{UseIndexAndWorktree: true})
		require.NoError(t, txn.PushPatches(ctx, testhelpers.Names("u1"), false))
		require.NoError(t, txn.Execute(ctx, "push u1"))

		require.Equal(t, "alpha\n", s.ReadFile("a.txt"))
		require.Equal(t, "new\n", s.ReadFile("n.txt"))
	})

	t.Run("a refused checkout keeps the committed stack state", func(t *testing.T) {
		s := testhelpers.NewStackScene(t)
		s.SeedUnapplied("u1", s.CommitOn(s.Stack.Base, map[string]string{"README.md": "patched readme\n"}, "u1"))
		s.WriteFileUnstaged("README.md", "local edit\n")

		txn := s.Begin(engine.Options{UseIndexAndWorktree: true})
		require.NoError(t, txn.PushPatches(ctx, testhelpers.Names("u1"), false))

		err := txn.Execute(ctx, "push u1")
		require.ErrorIs(t, err, errors.ErrCheckoutConflicts)

		// the stack state write is not rolled back
		testhelpers.ExpectSeries(t, s.Reload(), []string{"u1"}, nil, nil)
		require.Equal(t, "local edit\n", s.ReadFile("README.md"))
	})
}
