// Package editor finalizes patches under construction: it renders a message
// template, optionally routes it through the user's editor, cleans the
// result, derives a patch name when none was given, and writes the commit.
// It implements engine.PatchEditor.
package editor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/errors"
	"patchkit.dev/patchkit/internal/git"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/internal/tui"
)

// guidance is appended to every message template. It is commentary: the
// lines are stripped again when the message is read back.
const guidance = "\n" +
	"# Please enter the message for your patch. Lines starting with '#'\n" +
	"# will be ignored, and an empty message aborts the operation.\n"

// Editor is the interactive edit step.
type Editor struct {
	// Interactive opens the user's editor on the message template before
	// committing. When false the composed message is accepted as given,
	// after the usual cleanup.
	Interactive bool
}

var _ engine.PatchEditor = (*Editor)(nil)

// EditPatch finalizes req. With SaveTemplatePath set it writes the template
// file and stops; otherwise it commits the cleaned message onto req.Parent
// and reports the resulting name and commit id.
func (e *Editor) EditPatch(ctx context.Context, store engine.ObjectStore, req engine.EditRequest) (engine.EditOutcome, error) {
	if req.SaveTemplatePath != "" {
		if err := os.WriteFile(req.SaveTemplatePath, []byte(Template(req.Message)), 0o644); err != nil {
			return nil, fmt.Errorf("failed to save template: %w", err)
		}
		return engine.TemplateSaved{Path: req.SaveTemplatePath}, nil
	}

	message := req.Message
	if e.Interactive {
		edited, err := tui.OpenEditor(Template(message), "PATCH_EDITMSG-*")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrEditCancelled, err)
		}
		message = edited
	}

	message = CleanMessage(message)
	if message == "" {
		return nil, errors.ErrEmptyMessage
	}

	name := req.Name
	if name == "" {
		name = stack.GeneratePatchName(message)
		if req.TakenName != nil {
			name = stack.UniquePatchName(name, req.TakenName)
		}
	} else if err := stack.ValidatePatchName(name.String()); err != nil {
		return nil, err
	}

	commit, err := store.CommitTree(ctx, git.CommitSpec{
		Author:    req.Author,
		Committer: req.Committer,
		Message:   message,
		Tree:      req.Tree,
		Parents:   []plumbing.Hash{req.Parent},
		Sign:      req.Sign,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write patch commit: %w", err)
	}

	return engine.Edited{Name: name, CommitID: commit}, nil
}

// Template renders the editor buffer for message: the message followed by
// the commented guidance block.
func Template(message string) string {
	msg := strings.TrimRight(message, " \t\n")
	if msg != "" {
		msg += "\n"
	}
	return msg + guidance
}

// CleanMessage normalizes an edited message: comment lines are dropped,
// trailing whitespace is trimmed from every line, blank-line runs collapse
// to one, and leading and trailing blank lines are removed. A non-empty
// result always ends with a single newline.
func CleanMessage(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, strings.TrimRight(line, " \t\r"))
	}

	var out []string
	blanks := 0
	for _, line := range lines {
		if line == "" {
			blanks++
			continue
		}
		if blanks > 0 && len(out) > 0 {
			out = append(out, "")
		}
		blanks = 0
		out = append(out, line)
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}
