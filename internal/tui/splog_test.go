package tui

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplog_ConsoleOutput(t *testing.T) {
	t.Run("info writes the message followed by a newline", func(t *testing.T) {
		var buf bytes.Buffer
		splog := newSplog(&buf)

		splog.Info("hello")

		require.Equal(t, "hello\n", buf.String())
	})

	t.Run("info formats arguments", func(t *testing.T) {
		var buf bytes.Buffer
		splog := newSplog(&buf)

		splog.Info("pushed %d of %d patches", 2, 5)

		require.Equal(t, "pushed 2 of 5 patches\n", buf.String())
	})

	t.Run("warn and error and tip carry their prefixes", func(t *testing.T) {
		var buf bytes.Buffer
		splog := newSplog(&buf)

		splog.Warn("careful")
		splog.Error("boom")
		splog.Tip("try undo")

		require.Equal(t, "⚠️  careful\n❌ boom\n💡 try undo\n", buf.String())
	})

	t.Run("page writes raw content and newline writes a blank line", func(t *testing.T) {
		var buf bytes.Buffer
		splog := newSplog(&buf)

		splog.Page("series output")
		splog.Newline()

		require.Equal(t, "series output\n", buf.String())
	})
}

func TestSplog_Debug(t *testing.T) {
	t.Run("debug messages are dropped by default", func(t *testing.T) {
		var buf bytes.Buffer
		splog := newSplog(&buf)

		splog.Debug("internal detail")

		require.Empty(t, buf.String())
	})

	t.Run("debug messages are written when DEBUG is set", func(t *testing.T) {
		t.Setenv("DEBUG", "1")

		var buf bytes.Buffer
		splog := newSplog(&buf)

		splog.Debug("internal detail")

		require.Equal(t, "internal detail\n", buf.String())
	})
}

func TestSplog_Quiet(t *testing.T) {
	t.Run("quiet mode suppresses all output", func(t *testing.T) {
		var buf bytes.Buffer
		splog := newSplog(&buf)

		splog.SetQuiet(true)
		splog.Info("hidden")
		splog.Warn("hidden")
		splog.Page("hidden")
		splog.Newline()

		require.Empty(t, buf.String())
		require.True(t, splog.IsQuiet())
	})

	t.Run("output resumes when quiet mode is turned off", func(t *testing.T) {
		var buf bytes.Buffer
		splog := newSplog(&buf)

		splog.SetQuiet(true)
		splog.Info("hidden")
		splog.SetQuiet(false)
		splog.Info("visible")

		require.Equal(t, "visible\n", buf.String())
	})

	t.Run("silent splog starts quiet and closes cleanly", func(t *testing.T) {
		splog := NewSilentSplog()

		require.True(t, splog.IsQuiet())
		splog.Info("nobody sees this")
		require.NoError(t, splog.Close())
	})
}

func TestSplog_FileLogging(t *testing.T) {
	t.Run("messages are mirrored to the log file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "logs", "patchkit.log")

		splog, err := NewSplogWithConfig(logPath)
		require.NoError(t, err)

		splog.SetQuiet(true) // keep test output clean
		splog.Info("mirrored")
		require.NoError(t, splog.Close())

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		require.Contains(t, string(content), "mirrored")
	})

	t.Run("debug messages always reach the log file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "patchkit.log")

		splog, err := NewSplogWithConfig(logPath)
		require.NoError(t, err)

		splog.SetQuiet(true)
		splog.Debug("diagnostic")
		require.NoError(t, splog.Close())

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		require.Contains(t, string(content), "diagnostic")
	})

	t.Run("close without a log file is a no-op", func(t *testing.T) {
		splog := NewSplog()
		require.NoError(t, splog.Close())
	})
}
