package tui

import (
	"os"
	"path/filepath"
)

// GetLogFilePath returns the path to the log file.
// It can be overridden with the PATCHKIT_LOG_FILE environment variable;
// otherwise logs go to ~/.patchkit/logs/patchkit.log.
func GetLogFilePath() (string, error) {
	if envPath := os.Getenv("PATCHKIT_LOG_FILE"); envPath != "" {
		return envPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".patchkit", "logs", "patchkit.log"), nil
}
