package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tribunal.log")
	logger, closer := New(Options{Level: "info", File: path})
	logger.Info("hello", "event", "logging_test")
	require.NoError(t, closer.Close())

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(buf), `"event":"logging_test"`)
}
