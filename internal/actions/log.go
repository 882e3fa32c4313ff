package actions

import (
	"fmt"
	"strings"

	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/tui"
)

// LogOptions contains options for the log command.
type LogOptions struct {
	Number int
}

// LogAction prints the stack's recorded states, newest first.
func LogAction(ctx *runtime.Context, opts LogOptions) error {
	branch, err := ctx.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	entries, err := ctx.Repo.StateLog(ctx.Context, branch, opts.Number)
	if err != nil {
		return err
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		subject, _, _ := strings.Cut(entry.Message, "\n")
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			tui.ColorYellow(entry.CommitID.String()[:10]),
			entry.When.Format("2006-01-02 15:04:05 -0700"),
			subject))
	}
	ctx.Splog.Page(strings.Join(lines, "\n"))
	ctx.Splog.Newline()
	return nil
}
