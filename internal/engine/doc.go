// Package engine implements the stack transaction engine.
//
// It is the core of patchkit, responsible for:
//   - Capturing a working copy of a branch's patch stack
//   - Applying ordered mutations to it (push, pop, delete, insert, update)
//   - Replaying patch changes onto new bases, with three-way merge fallback
//     and conflict recording
//   - Committing the resulting stack state, branch ref, and patch refs
//     atomically, with an optional worktree checkout
//   - Squashing multiple patches into one, reconciling authorship
//
// The engine never touches the object store or worktree directly: it works
// through the ObjectStore, TreeMerger, and StackStore interfaces, so it can
// run against in-memory repositories in tests.
package engine
