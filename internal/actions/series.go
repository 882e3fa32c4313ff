package actions

import (
	"strings"

	"patchkit.dev/patchkit/internal/runtime"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/internal/tui"
)

// SeriesOptions contains options for the series command.
type SeriesOptions struct {
	Description bool
	All         bool
}

// SeriesAction lists the stack: applied patches marked '+' ('>' for the
// top), unapplied '-', hidden '!'.
func SeriesAction(ctx *runtime.Context, opts SeriesOptions) error {
	stk, err := ctx.LoadStack()
	if err != nil {
		return err
	}

	if len(stk.Applied)+len(stk.Unapplied)+len(stk.Hidden) == 0 {
		ctx.Splog.Info("no patches")
		return nil
	}

	var lines []string
	appendLine := func(marker, display string, name stack.PatchName) error {
		line := marker + " " + display
		if opts.Description {
			id, _ := stk.PatchCommit(name)
			commit, err := ctx.Svc.Store.Commit(ctx.Context, id)
			if err != nil {
				return err
			}
			subject, _, _ := strings.Cut(commit.Message, "\n")
			line += " # " + subject
		}
		lines = append(lines, line)
		return nil
	}

	for i, name := range stk.Applied {
		marker, display := "+", tui.ColorApplied(name.String())
		if i == len(stk.Applied)-1 {
			marker, display = ">", tui.ColorCurrent(name.String())
		}
		if err := appendLine(marker, display, name); err != nil {
			return err
		}
	}
	for _, name := range stk.Unapplied {
		if err := appendLine("-", name.String(), name); err != nil {
			return err
		}
	}
	if opts.All {
		for _, name := range stk.Hidden {
			if err := appendLine("!", tui.ColorHidden(name.String()), name); err != nil {
				return err
			}
		}
	}

	ctx.Splog.Page(strings.Join(lines, "\n"))
	ctx.Splog.Newline()
	return nil
}
