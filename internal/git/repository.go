package git

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"patchkit.dev/patchkit/internal/errors"
)

// Repository wraps a go-git repository.
type Repository struct {
	*gogit.Repository
	path   string
	signer *openpgp.Entity
}

// OpenRepository opens the git repository containing path.
func OpenRepository(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &Repository{
		Repository: repo,
		path:       absPath,
	}, nil
}

// Wrap adapts an already-open go-git repository. Used by tests with
// in-memory storage.
func Wrap(repo *gogit.Repository) *Repository {
	return &Repository{Repository: repo}
}

// GetRepoRoot returns the root directory of the repository.
func (r *Repository) GetRepoRoot() string {
	return r.path
}

// CurrentBranch returns the branch HEAD is on.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", errors.ErrNotOnBranch
	}
	return head.Name().Short(), nil
}

// DefaultSignature returns the acting user's signature from git config,
// stamped with the current time.
func (r *Repository) DefaultSignature() (object.Signature, error) {
	cfg, err := r.ConfigScoped(gitconfig.SystemScope)
	if err != nil {
		return object.Signature{}, fmt.Errorf("failed to read git config: %w", err)
	}
	if cfg.User.Name == "" || cfg.User.Email == "" {
		return object.Signature{}, fmt.Errorf("user identity not configured; set user.name and user.email")
	}
	return object.Signature{
		Name:  cfg.User.Name,
		Email: cfg.User.Email,
		When:  time.Now(),
	}, nil
}

// IsClean reports whether the worktree has no uncommitted changes.
// Untracked files do not count as dirty.
func (r *Repository) IsClean() (bool, error) {
	wt, err := r.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	for _, fs := range status {
		if fs.Staging == gogit.Untracked && fs.Worktree == gogit.Untracked {
			continue
		}
		if fs.Staging != gogit.Unmodified || fs.Worktree != gogit.Unmodified {
			return false, nil
		}
	}
	return true, nil
}

// SetSigner installs the PGP entity used when a CommitSpec requests signing.
func (r *Repository) SetSigner(signer *openpgp.Entity) {
	r.signer = signer
}

// LoadSigningKey reads an armored private key file and installs the first
// entity that carries a private key.
func (r *Repository) LoadSigningKey(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open signing key: %w", err)
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return fmt.Errorf("failed to parse signing key: %w", err)
	}
	for _, e := range entities {
		if e.PrivateKey != nil {
			r.signer = e
			return nil
		}
	}
	return errors.ErrSigningKeyMissing
}

// ResolveCommit resolves a revision string to a commit id.
func (r *Repository) ResolveCommit(rev string) (plumbing.Hash, error) {
	h, err := r.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("revision %q not found: %w", rev, err)
	}
	return *h, nil
}
