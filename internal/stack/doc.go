// Package stack defines the patch stack data model.
//
// A stack is an ordered collection of named patches partitioned into three
// groups: applied (bottom to top, each patch's commit chained onto the
// previous by first parent), unapplied, and hidden. The package holds the
// validated PatchName type, the runtime Stack view, and the persisted State
// document that is stored as a JSON blob inside a state commit.
package stack
