package git

import (
	"bytes"
	"context"
	"sort"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// Merge conflict marker labels: "current" is the tree being merged onto (the
// stack top), "patched" is the incoming patch content.
const (
	mergeLabelCurrent = "current"
	mergeLabelPatched = "patched"
)

// MergeResult is the outcome of a three-way tree merge. Tree is always a
// valid tree id; when Conflicts is non-empty it contains conflict markers in
// the listed paths, so the conflicted state can be committed and resolved
// later.
type MergeResult struct {
	Tree      plumbing.Hash
	Conflicts []string
}

// Clean reports whether the merge completed without conflicts.
func (r MergeResult) Clean() bool {
	return len(r.Conflicts) == 0
}

// MergeTrees three-way merges ours and theirs against base. Entries that
// changed on only one side take that side; entries changed identically
// collapse; entries changed on both sides go through a line-level merge with
// conflict markers on unresolvable regions. The result replaces the index
// content.
func (ix *ScratchIndex) MergeTrees(ctx context.Context, base, ours, theirs plumbing.Hash) (MergeResult, error) {
	baseEntries, err := ix.repo.TreeEntries(base)
	if err != nil {
		return MergeResult{}, err
	}
	ourEntries, err := ix.repo.TreeEntries(ours)
	if err != nil {
		return MergeResult{}, err
	}
	theirEntries, err := ix.repo.TreeEntries(theirs)
	if err != nil {
		return MergeResult{}, err
	}

	paths := make(map[string]struct{}, len(baseEntries)+len(ourEntries)+len(theirEntries))
	for _, entries := range []map[string]Entry{baseEntries, ourEntries, theirEntries} {
		for path := range entries {
			paths[path] = struct{}{}
		}
	}

	merged := make(map[string]Entry, len(ourEntries))
	var conflicts []string

	for path := range paths {
		b, hasB := baseEntries[path]
		o, hasO := ourEntries[path]
		t, hasT := theirEntries[path]

		switch {
		case sameEntry(o, hasO, t, hasT):
			if hasO {
				merged[path] = o
			}
		case sameEntry(b, hasB, o, hasO):
			// ours untouched, take theirs (absence = deletion)
			if hasT {
				merged[path] = t
			}
		case sameEntry(b, hasB, t, hasT):
			if hasO {
				merged[path] = o
			}
		default:
			entry, clean, err := ix.mergeEntry(path, b, hasB, o, hasO, t, hasT)
			if err != nil {
				return MergeResult{}, err
			}
			if entry != nil {
				merged[path] = *entry
			}
			if !clean {
				conflicts = append(conflicts, path)
			}
		}
	}

	ix.entries = merged
	tree, err := ix.repo.WriteTreeFromEntries(merged)
	if err != nil {
		return MergeResult{}, err
	}
	sort.Strings(conflicts)
	return MergeResult{Tree: tree, Conflicts: conflicts}, nil
}

func sameEntry(a Entry, hasA bool, b Entry, hasB bool) bool {
	if hasA != hasB {
		return false
	}
	return !hasA || a == b
}

// mergeEntry resolves one both-sides-changed path. Returns the entry to
// place in the result tree (nil for none) and whether the resolution was
// clean.
func (ix *ScratchIndex) mergeEntry(path string, b Entry, hasB bool, o Entry, hasO bool, t Entry, hasT bool) (*Entry, bool, error) {
	// modify/delete: keep the surviving side's content, flag the path
	if !hasO {
		return &t, false, nil
	}
	if !hasT {
		return &o, false, nil
	}

	if !mergeableMode(o.Mode) || !mergeableMode(t.Mode) {
		return &o, false, nil
	}

	mode, modeOK := mergeMode(b, hasB, o, t)

	var baseData []byte
	if hasB && mergeableMode(b.Mode) {
		var err error
		baseData, err = ix.repo.BlobContent(b.Hash)
		if err != nil {
			return nil, false, err
		}
	}
	ourData, err := ix.repo.BlobContent(o.Hash)
	if err != nil {
		return nil, false, err
	}
	theirData, err := ix.repo.BlobContent(t.Hash)
	if err != nil {
		return nil, false, err
	}

	if isBinary(baseData) || isBinary(ourData) || isBinary(theirData) {
		return &o, false, nil
	}

	text, clean := mergeLines(string(baseData), string(ourData), string(theirData))
	blob, err := ix.repo.WriteBlob([]byte(text))
	if err != nil {
		return nil, false, err
	}
	entry := &Entry{Mode: mode, Hash: blob}
	return entry, clean && modeOK, nil
}

func mergeableMode(mode filemode.FileMode) bool {
	return mode == filemode.Regular || mode == filemode.Executable || mode == filemode.Deprecated
}

// mergeMode resolves the entry mode three-way. When both sides changed the
// mode differently, ours wins and the path is flagged.
func mergeMode(b Entry, hasB bool, o, t Entry) (filemode.FileMode, bool) {
	if o.Mode == t.Mode {
		return o.Mode, true
	}
	if hasB && b.Mode == o.Mode {
		return t.Mode, true
	}
	if hasB && b.Mode == t.Mode {
		return o.Mode, true
	}
	return o.Mode, false
}

func isBinary(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	return !utf8.Valid(data)
}
