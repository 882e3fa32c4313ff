package stack

import (
	"fmt"
	"regexp"
	"strings"

	"patchkit.dev/patchkit/internal/errors"
)

const (
	// MaxGeneratedNameLength caps names derived from commit messages so the
	// patch ref refs/patchkit/patches/<branch>/<name> stays well under the
	// ref length limits.
	MaxGeneratedNameLength = 64
)

// PatchName is a validated patch identifier, unique within a stack across
// all three groups. Names are case-sensitive single ref components.
type PatchName string

func (n PatchName) String() string {
	return string(n)
}

// NewPatchName validates s and returns it as a PatchName.
func NewPatchName(s string) (PatchName, error) {
	if err := ValidatePatchName(s); err != nil {
		return "", err
	}
	return PatchName(s), nil
}

// ValidatePatchName checks s against git ref-component rules: non-empty, no
// control characters or whitespace, none of `~^:?*[\`, no slash, no leading
// '-' or '.', no trailing '.', no "..", no ".lock" suffix, and not "@".
func ValidatePatchName(s string) error {
	switch {
	case s == "":
		return errors.NewInvalidPatchNameError(s, "empty name")
	case s == "@":
		return errors.NewInvalidPatchNameError(s, "'@' is reserved")
	case strings.HasPrefix(s, "-"):
		return errors.NewInvalidPatchNameError(s, "cannot start with '-'")
	case strings.HasPrefix(s, "."):
		return errors.NewInvalidPatchNameError(s, "cannot start with '.'")
	case strings.HasSuffix(s, "."):
		return errors.NewInvalidPatchNameError(s, "cannot end with '.'")
	case strings.Contains(s, ".."):
		return errors.NewInvalidPatchNameError(s, "cannot contain '..'")
	case strings.HasSuffix(s, ".lock"):
		return errors.NewInvalidPatchNameError(s, "cannot end with '.lock'")
	}
	for _, r := range s {
		if r <= ' ' || r == 0x7f {
			return errors.NewInvalidPatchNameError(s, "cannot contain whitespace or control characters")
		}
		switch r {
		case '~', '^', ':', '?', '*', '[', '\\', '/':
			return errors.NewInvalidPatchNameError(s, fmt.Sprintf("cannot contain %q", r))
		}
	}
	return nil
}

var (
	nameReplaceRegex = regexp.MustCompile(`[^-a-z0-9]+`)
	hyphenRunRegex   = regexp.MustCompile(`-+`)
)

// GeneratePatchName derives a patch name from the first line of a commit
// message: lowercased, non-alphanumeric runs collapsed to hyphens, trimmed,
// and capped at MaxGeneratedNameLength. Falls back to "patch" when nothing
// usable remains.
func GeneratePatchName(message string) PatchName {
	subject := message
	if idx := strings.IndexByte(subject, '\n'); idx >= 0 {
		subject = subject[:idx]
	}
	name := strings.ToLower(strings.TrimSpace(subject))
	name = nameReplaceRegex.ReplaceAllString(name, "-")
	name = hyphenRunRegex.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if len(name) > MaxGeneratedNameLength {
		name = name[:MaxGeneratedNameLength]
		if idx := strings.LastIndexByte(name, '-'); idx > 0 {
			name = name[:idx]
		}
	}
	if ValidatePatchName(name) != nil {
		return "patch"
	}
	return PatchName(name)
}

// UniquePatchName returns base, or base suffixed with the lowest numeric
// suffix that makes it free according to taken.
func UniquePatchName(base PatchName, taken func(PatchName) bool) PatchName {
	if !taken(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := PatchName(fmt.Sprintf("%s-%d", base, i))
		if !taken(candidate) {
			return candidate
		}
	}
}
