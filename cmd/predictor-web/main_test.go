package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunReturnsInitErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	config := `{"logLevel": "error", "artifacts": {"vectorizerPath": "` + filepath.ToSlash(filepath.Join(dir, "missing.json")) + `"}}`
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))

	err := run(path, "127.0.0.1:0")
	require.ErrorContains(t, err, "init predictor")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunReturnsConfigErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ui": {"theme": "neon"}}`), 0o600))

	err := run(path, "")
	require.ErrorContains(t, err, "load config")
}
