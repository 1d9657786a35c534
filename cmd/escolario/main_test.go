package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "escolario.db")

	out := execute(t, "migrate", "--db", path, "--env-file", "")
	assert.Equal(t, path+": schema version 3\n", out)
	assert.FileExists(t, path)

	// second run is a no-op
	out = execute(t, "migrate", "--db", path, "--env-file", "")
	assert.Contains(t, out, "schema version 3")
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "Build version: N/A")
	assert.Contains(t, out, "Build commit: N/A")
}
