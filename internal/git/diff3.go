package git

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// hunk is one contiguous edit derived from a two-way line diff: base lines
// [start, end) are replaced by repl. start == end is a pure insertion.
type hunk struct {
	start int
	end   int
	repl  []string
}

// mergeLines three-way merges ours and theirs against base at line
// granularity. Edits touching disjoint base regions both apply; identical
// edits collapse; overlapping differing edits produce a conflict block with
// current/patched markers. Returns the merged text and whether it is clean.
func mergeLines(base, ours, theirs string) (string, bool) {
	dmp := diffmatchpatch.New()
	ourHunks := lineDiffHunks(dmp, base, ours)
	theirHunks := lineDiffHunks(dmp, base, theirs)
	baseLines := splitLines(base)

	var out []string
	clean := true
	pos := 0
	i, j := 0, 0

	for i < len(ourHunks) || j < len(theirHunks) {
		switch {
		case j >= len(theirHunks) || (i < len(ourHunks) && hunkBefore(ourHunks[i], theirHunks[j])):
			h := ourHunks[i]
			i++
			out = append(out, baseLines[pos:h.start]...)
			out = append(out, h.repl...)
			pos = h.end
		case i >= len(ourHunks) || hunkBefore(theirHunks[j], ourHunks[i]):
			h := theirHunks[j]
			j++
			out = append(out, baseLines[pos:h.start]...)
			out = append(out, h.repl...)
			pos = h.end
		default:
			// overlapping edits: gather the maximal cluster from both sides
			start, end := ourHunks[i].start, ourHunks[i].end
			var ourCluster, theirCluster []hunk
			for {
				grew := false
				for i < len(ourHunks) && overlaps(ourHunks[i], start, end) {
					start, end = extend(start, end, ourHunks[i])
					ourCluster = append(ourCluster, ourHunks[i])
					i++
					grew = true
				}
				for j < len(theirHunks) && overlaps(theirHunks[j], start, end) {
					start, end = extend(start, end, theirHunks[j])
					theirCluster = append(theirCluster, theirHunks[j])
					j++
					grew = true
				}
				if !grew {
					break
				}
			}

			out = append(out, baseLines[pos:start]...)
			ourRegion := applyHunks(baseLines, start, end, ourCluster)
			theirRegion := applyHunks(baseLines, start, end, theirCluster)
			if equalLines(ourRegion, theirRegion) {
				out = append(out, ourRegion...)
			} else {
				out = append(out, "<<<<<<< "+mergeLabelCurrent+"\n")
				out = append(out, ourRegion...)
				out = append(out, "=======\n")
				out = append(out, theirRegion...)
				out = append(out, ">>>>>>> "+mergeLabelPatched+"\n")
				clean = false
			}
			pos = end
		}
	}
	out = append(out, baseLines[pos:]...)
	return strings.Join(out, ""), clean
}

// hunkBefore reports whether a ends at or before b starts without sharing
// an anchor point. Two insertions at the same position are not ordered and
// fall through to cluster handling.
func hunkBefore(a, b hunk) bool {
	if a.end < b.start {
		return true
	}
	return a.end == b.start && a.start < b.start
}

func overlaps(h hunk, start, end int) bool {
	if h.start == start {
		return true
	}
	if h.start == h.end {
		return h.start > start && h.start < end
	}
	return h.start < end && h.end > start
}

func extend(start, end int, h hunk) (int, int) {
	if h.start < start {
		start = h.start
	}
	if h.end > end {
		end = h.end
	}
	return start, end
}

// applyHunks replays hunks (confined to base[start:end)) onto that region.
func applyHunks(baseLines []string, start, end int, hunks []hunk) []string {
	var out []string
	pos := start
	for _, h := range hunks {
		out = append(out, baseLines[pos:h.start]...)
		out = append(out, h.repl...)
		pos = h.end
	}
	out = append(out, baseLines[pos:end]...)
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// lineDiffHunks computes the line-level edits turning base into side, as
// hunks over base line indices. Adjacent delete/insert runs coalesce into a
// single replacement hunk.
func lineDiffHunks(dmp *diffmatchpatch.DiffMatchPatch, base, side string) []hunk {
	baseChars, sideChars, lines := dmp.DiffLinesToChars(base, side)
	diffs := dmp.DiffMain(baseChars, sideChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var hunks []hunk
	var pending *hunk
	pos := 0
	flush := func() {
		if pending != nil {
			hunks = append(hunks, *pending)
			pending = nil
		}
	}
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += n
		case diffmatchpatch.DiffDelete:
			if pending == nil {
				pending = &hunk{start: pos, end: pos}
			}
			pending.end += n
			pos += n
		case diffmatchpatch.DiffInsert:
			if pending == nil {
				pending = &hunk{start: pos, end: pos}
			}
			pending.repl = append(pending.repl, splitLines(d.Text)...)
		}
	}
	flush()
	return hunks
}

// splitLines splits text into lines, each keeping its trailing newline. A
// final line without a newline is kept as-is.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for idx := strings.IndexByte(text[start:], '\n'); idx >= 0; idx = strings.IndexByte(text[start:], '\n') {
		lines = append(lines, text[start:start+idx+1])
		start += idx + 1
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
