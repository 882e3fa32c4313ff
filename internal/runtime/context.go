// Package runtime provides the execution context for patchkit commands: the
// open repository, the engine service bundle, configuration, and output.
package runtime

import (
	"context"
	"fmt"

	"patchkit.dev/patchkit/internal/config"
	"patchkit.dev/patchkit/internal/engine"
	"patchkit.dev/patchkit/internal/git"
	"patchkit.dev/patchkit/internal/stack"
	"patchkit.dev/patchkit/internal/tui"
)

// Context provides commands access to the repository and shared services.
type Context struct {
	Context context.Context
	Repo    *git.Repository
	Svc     engine.Services
	Config  *config.Config
	Splog   *tui.Splog
}

// GetContext opens the repository containing the working directory and
// wires up the shared services from its configuration.
func GetContext(ctx context.Context) (*Context, error) {
	repo, err := git.OpenRepository(".")
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	cfg, err := config.Load(repo.GetRepoRoot())
	if err != nil {
		return nil, err
	}

	logPath := cfg.LogFilePath()
	if logPath == "" {
		if p, err := tui.GetLogFilePath(); err == nil {
			logPath = p
		}
	}
	splog, err := tui.NewSplogWithConfig(logPath)
	if err != nil {
		return nil, err
	}

	if cfg.ShouldSignCommits() && cfg.SigningKey() != "" {
		if err := repo.LoadSigningKey(cfg.SigningKey()); err != nil {
			return nil, err
		}
	}

	return &Context{
		Context: ctx,
		Repo:    repo,
		Svc:     engine.NewServices(repo),
		Config:  cfg,
		Splog:   splog,
	}, nil
}

// Options builds engine options from the configuration. Conflict and
// worktree behavior stay with the caller.
func (c *Context) Options() engine.Options {
	return engine.Options{
		UseIndexAndWorktree:       true,
		CommitterDateIsAuthorDate: c.Config.UseAuthorDate(),
		Sign:                      c.Config.ShouldSignCommits(),
		Output:                    c.Splog,
	}
}

// LoadStack loads the patch stack for the branch HEAD is on.
func (c *Context) LoadStack() (*stack.Stack, error) {
	branch, err := c.Repo.CurrentBranch()
	if err != nil {
		return nil, err
	}
	return c.Repo.LoadStack(c.Context, branch)
}
