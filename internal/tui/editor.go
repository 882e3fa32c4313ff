package tui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// OpenEditor opens the user's preferred editor with the given initial content.
// It returns the edited content or an error.
//
// The editor is resolved the way git does: GIT_EDITOR, then core.editor from
// git config, then VISUAL, then EDITOR, falling back to vi.
func OpenEditor(initialContent, filenamePattern string) (string, error) {
	// Create temporary file
	tmpFile, err := os.CreateTemp("", filenamePattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmpFile.Name()) }()

	// Write initial content
	if _, err := tmpFile.WriteString(initialContent); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	editor := resolveEditor()

	// Open editor
	cmd := exec.Command("sh", "-c", fmt.Sprintf("%s %s", editor, tmpFile.Name()))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor exited with error: %w", err)
	}

	// Read edited content
	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}

	return string(content), nil
}

func resolveEditor() string {
	if editor := os.Getenv("GIT_EDITOR"); editor != "" {
		return editor
	}

	// Try git config next so repository and user settings win over the
	// generic environment variables.
	output, err := exec.Command("git", "config", "--get", "core.editor").Output()
	if err == nil {
		if editor := strings.TrimSpace(string(output)); editor != "" {
			return editor
		}
	}

	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}

	return "vi"
}
