// Package config manages the repository configuration file, stored as JSON
// at .git/patchkit_config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CurrentVersion is the configuration format version this build writes.
const CurrentVersion = 1

const fileName = "patchkit_config"

// Config is the per-repository configuration. Unset fields fall back to
// defaults, so a missing file behaves like an empty one.
type Config struct {
	Version                   int     `json:"version"`
	SignCommits               *bool   `json:"sign_commits,omitempty"`
	SigningKeyPath            *string `json:"signing_key_path,omitempty"`
	CommitterDateIsAuthorDate *bool   `json:"committer_date_is_author_date,omitempty"`
	LogFile                   *string `json:"log_file,omitempty"`
}

func configPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", fileName)
}

// Load reads the configuration for the repository rooted at repoRoot. A
// missing file yields the default configuration.
func Load(repoRoot string) (*Config, error) {
	data, err := os.ReadFile(configPath(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Version: CurrentVersion}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version > CurrentVersion {
		return nil, fmt.Errorf("config version %d is newer than this build supports", cfg.Version)
	}
	return &cfg, nil
}

// Save writes the configuration. The file is written to a temporary sibling
// first and renamed into place, so a crash never leaves a half-written
// config behind.
func Save(repoRoot string, cfg *Config) error {
	cfg.Version = CurrentVersion

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	path := configPath(repoRoot)
	tmp, err := os.CreateTemp(filepath.Dir(path), fileName+"-*")
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ShouldSignCommits reports whether new commits are PGP-signed.
func (c *Config) ShouldSignCommits() bool {
	return c.SignCommits != nil && *c.SignCommits
}

// SigningKey returns the armored private key path, or "" when unset.
func (c *Config) SigningKey() string {
	if c.SigningKeyPath == nil {
		return ""
	}
	return *c.SigningKeyPath
}

// UseAuthorDate reports whether rewritten commits keep the author date as
// the committer date.
func (c *Config) UseAuthorDate() bool {
	return c.CommitterDateIsAuthorDate != nil && *c.CommitterDateIsAuthorDate
}

// LogFilePath returns the configured debug log destination, or "" when
// unset; callers fall back to the default location.
func (c *Config) LogFilePath() string {
	if c.LogFile == nil {
		return ""
	}
	return *c.LogFile
}
