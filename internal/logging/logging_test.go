package logging

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestRecordsCarrySubsystem(t *testing.T) {
	var buf bytes.Buffer
	Use(&buf, LevelDebug)
	t.Cleanup(func() { Use(io.Discard, LevelInfo) })

	Info("cache", "flushed %s", "config")
	Error("modules", errors.New("boom"), "toggle failed")

	out := buf.String()
	assert.Contains(t, out, "subsystem=cache")
	assert.Contains(t, out, `msg="flushed config"`)
	assert.Contains(t, out, "error=boom")
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Use(&buf, LevelWarn)
	t.Cleanup(func() { Use(io.Discard, LevelInfo) })

	Debug("x", "hidden")
	Info("x", "hidden")
	Warn("x", "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "magetui.log")
	closeFn, err := Init(LevelInfo, path)
	require.NoError(t, err)

	Info("app", "started")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "started")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
