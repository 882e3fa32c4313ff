package tui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY reports whether stdin and stdout are attached to a terminal, so
// interactive prompts and editors can run.
func IsTTY() bool {
	return (isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
}
