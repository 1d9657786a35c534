package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesNestedDirectory(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "escolario", "data", "escolario.db")

	got, err := EnsureParentDir(file)
	require.NoError(t, err)

	want := filepath.Join(tmp, "escolario", "data")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureParentDir_Idempotent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "db", "x.db")

	first, err := EnsureParentDir(file)
	require.NoError(t, err)

	second, err := EnsureParentDir(file)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestEnsureParentDir_BareFileName(t *testing.T) {
	got, err := EnsureParentDir("escolario.db")
	require.NoError(t, err)
	require.Equal(t, ".", got)
}

func TestEnsureParentDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o660))

	_, err := EnsureParentDir(filepath.Join(blocker, "escolario.db"))
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestDataHome_PrefersXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	got, err := DataHome()
	require.NoError(t, err)
	require.Equal(t, "/tmp/xdg-data", got)
}

func TestDataHome_FallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", home)

	got, err := DataHome()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "share"), got)
}
