package engine

import "patchkit.dev/patchkit/internal/tui"

// Options configure one transaction.
type Options struct {
	// AllowConflicts records a push conflict in the working copy and lets the
	// transaction continue with unrelated operations; Execute persists the
	// conflicted state and marks the log entry. When false, a push conflict
	// poisons the transaction and Execute refuses to persist anything.
	AllowConflicts bool

	// UseIndexAndWorktree makes Execute check out the new head tree into the
	// real index and worktree after the stack state is written.
	UseIndexAndWorktree bool

	// CommitterDateIsAuthorDate stamps rewritten commits with the author date
	// instead of the current time.
	CommitterDateIsAuthorDate bool

	// Sign requests PGP signing of every commit the transaction writes.
	Sign bool

	// Output receives operation progress lines. Nil means silent.
	Output *tui.Splog
}
