// Package git provides the object-store adapter and tree-merge service over
// go-git.
//
// It is the only package that touches the repository directly and provides:
//   - Commit and tree reads, commit-tree writes (with optional PGP signing)
//   - Scratch index operations (read-tree, tree-diff apply, write-tree,
//     three-way merge) isolated from the real index
//   - Worktree checkout with read-tree -u -m refusal semantics
//   - Stack state persistence: state commits, the state ref, and patch refs
package git
