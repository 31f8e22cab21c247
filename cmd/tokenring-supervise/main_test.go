package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenring-ai/coder-desktop/internal/instance"
	"github.com/tokenring-ai/coder-desktop/internal/supervisor"
	"github.com/tokenring-ai/coder-desktop/internal/version"
)

func TestVersionFlag(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), version.Full())
}

func TestRun_MissingBackend(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "desktop.yaml")
	writeConfig(t, cfgFile, `
backend:
  command: definitely-not-a-real-backend-binary
  script: `+filepath.ToSlash(filepath.Join(dir, "missing.js"))+`
log:
  file: `+filepath.ToSlash(filepath.Join(dir, "logs", "supervise.log"))+`
`)

	err := run(context.Background(), flags{configFile: cfgFile, dataDir: filepath.Join(dir, "data")})
	require.ErrorIs(t, err, supervisor.ErrBackendNotFound)
}

func TestRun_LockHeld(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	lock, err := instance.Acquire(data)
	require.NoError(t, err)
	defer lock.Release()

	cfgFile := filepath.Join(dir, "desktop.yaml")
	writeConfig(t, cfgFile, "log:\n  file: "+filepath.ToSlash(filepath.Join(dir, "supervise.log"))+"\n")

	err = run(context.Background(), flags{configFile: cfgFile, dataDir: data})
	require.ErrorIs(t, err, instance.ErrAlreadyRunning)
}
