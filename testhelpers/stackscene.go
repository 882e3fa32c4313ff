package testhelpers

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/stack"
)

// StackScene is a Scene with an initialized patch stack, plus helpers that
// seed patches through the transaction engine so the persisted refs and
// state log look exactly like real usage.
type StackScene struct {
	*Scene
	Stack *stack.Stack
	Svc   engine.Services
}

// NewStackScene builds an in-memory repository with an initialized stack on
// the default branch.
func NewStackScene(t *testing.T) *StackScene {
	t.Helper()
	s := NewScene(t)
	stk, err := s.Repo.InitStack(context.Background(), s.Branch)
	require.NoError(t, err)
	return &StackScene{Scene: s, Stack: stk, Svc: engine.NewServices(s.Repo)}
}

// SeedApplied commits files on the stack head and records the commit as a
// new applied patch.
func (s *StackScene) SeedApplied(name string, files map[string]string, message string) plumbing.Hash {
	s.T.Helper()
	ctx := context.Background()
	id := s.CommitOn(s.Stack.Head, files, message)
	txn := engine.Begin(s.Svc, s.Stack, engine.Options{})
	require.NoError(s.T, txn.NewApplied(ctx, stack.PatchName(name), id))
	require.NoError(s.T, txn.Execute(ctx, "new "+name))
	return id
}

// SeedUnapplied records an existing commit as a new unapplied patch at the
// end of the unapplied group.
func (s *StackScene) SeedUnapplied(name string, id plumbing.Hash) {
	s.T.Helper()
	ctx := context.Background()
	txn := engine.Begin(s.Svc, s.Stack, engine.Options{})
	require.NoError(s.T, txn.NewUnapplied(ctx, stack.PatchName(name), id, -1))
	require.NoError(s.T, txn.Execute(ctx, "new "+name))
}

// SeedHidden records an existing commit as a hidden patch.
func (s *StackScene) SeedHidden(name string, id plumbing.Hash) {
	s.T.Helper()
	ctx := context.Background()
	txn := engine.Begin(s.Svc, s.Stack, engine.Options{})
	require.NoError(s.T, txn.NewUnapplied(ctx, stack.PatchName(name), id, -1))
	require.NoError(s.T, txn.HidePatches(ctx, Names(name)))
	require.NoError(s.T, txn.Execute(ctx, "hide "+name))
}

// PatchID returns the recorded commit of a patch.
func (s *StackScene) PatchID(name string) plumbing.Hash {
	s.T.Helper()
	id, ok := s.Stack.PatchCommit(stack.PatchName(name))
	require.True(s.T, ok, "no patch %q", name)
	return id
}

// Reload reads the persisted stack back from the repository, independent of
// the in-memory working copies.
func (s *StackScene) Reload() *stack.Stack {
	s.T.Helper()
	stk, err := s.Repo.LoadStack(context.Background(), s.Branch)
	require.NoError(s.T, err)
	return stk
}

// Begin starts a transaction against the scene's stack.
func (s *StackScene) Begin(opts engine.Options) *engine.Transaction {
	return engine.Begin(s.Svc, s.Stack, opts)
}
