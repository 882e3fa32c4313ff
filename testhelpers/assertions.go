package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"patchkit.dev/patchkit/internal/stack"
)

// Must panics if err is not nil, otherwise returns the value. Useful in test
// setup code where errors are not expected and should halt immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// Names converts string literals to patch names.
func Names(names ...string) []stack.PatchName {
	out := make([]stack.PatchName, len(names))
	for i, n := range names {
		out[i] = stack.PatchName(n)
	}
	return out
}

// ExpectSeries asserts the applied, unapplied and hidden groups of a stack,
// in order. Pass nil for a group expected to be empty.
func ExpectSeries(t *testing.T, stk *stack.Stack, applied, unapplied, hidden []string) {
	t.Helper()
	require.Equal(t, normalize(applied), names(stk.Applied), "applied patches do not match")
	require.Equal(t, normalize(unapplied), names(stk.Unapplied), "unapplied patches do not match")
	require.Equal(t, normalize(hidden), names(stk.Hidden), "hidden patches do not match")
}

func names(in []stack.PatchName) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		out = append(out, n.String())
	}
	return out
}

func normalize(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
