package engine

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing/object"

	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/stack"
)

// authorSource pairs a patch name with its author, so encoding failures can
// name the offending patch.
type authorSource struct {
	patch  stack.PatchName
	author object.Signature
}

type authorIdentity struct {
	name  string
	email string
}

// reconcileAuthors picks the author for a patch squashed from sources, plus
// the Co-authored-by trailers crediting everyone else. Identity is (name,
// email); timestamps are ignored for equality. A single distinct identity is
// kept as the author unchanged (first source's signature). Otherwise the
// acting user becomes the author and each remaining identity gets one
// trailer, most frequent first, ties broken by name then email.
func reconcileAuthors(sources []authorSource, acting object.Signature) (object.Signature, []string, error) {
	counts := make(map[authorIdentity]int)
	var order []authorIdentity
	for _, src := range sources {
		if !utf8.ValidString(src.author.Name) {
			return object.Signature{}, nil, errors.NewEncodingError("author name", src.patch.String())
		}
		if !utf8.ValidString(src.author.Email) {
			return object.Signature{}, nil, errors.NewEncodingError("author email", src.patch.String())
		}
		id := authorIdentity{name: src.author.Name, email: src.author.Email}
		if _, seen := counts[id]; !seen {
			order = append(order, id)
		}
		counts[id]++
	}

	if len(order) == 0 {
		return acting, nil, nil
	}
	if len(order) == 1 {
		return sources[0].author, nil, nil
	}

	chosen := authorIdentity{name: acting.Name, email: acting.Email}
	var rest []authorIdentity
	for _, id := range order {
		if id != chosen {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if counts[rest[i]] != counts[rest[j]] {
			return counts[rest[i]] > counts[rest[j]]
		}
		if rest[i].name != rest[j].name {
			return rest[i].name < rest[j].name
		}
		return rest[i].email < rest[j].email
	})

	trailers := make([]string, 0, len(rest))
	for _, id := range rest {
		trailers = append(trailers, fmt.Sprintf("Co-authored-by: %s <%s>", id.name, id.email))
	}
	return acting, trailers, nil
}

// messageSource pairs a patch name with its full commit message.
type messageSource struct {
	patch   stack.PatchName
	message string
}

// composeMessage builds the default message for a squashed patch. With no
// trailers each message body is prefixed by a numbered comment line naming
// the patch it came from; editors strip those on finalize. With trailers the
// trimmed bodies are joined bare and the trailer block is appended after a
// blank line.
func composeMessage(sources []messageSource, trailers []string) string {
	var sb strings.Builder
	if len(trailers) == 0 {
		for i, src := range sources {
			fmt.Fprintf(&sb, "# Commit message from patch #%d: %s\n", i+1, src.patch)
			sb.WriteString(strings.TrimRight(src.message, " \t\n"))
			sb.WriteString("\n\n")
		}
		return sb.String()
	}

	for i, src := range sources {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.TrimRight(src.message, " \t\n"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	for _, trailer := range trailers {
		sb.WriteString(trailer)
		sb.WriteString("\n")
	}
	return sb.String()
}
