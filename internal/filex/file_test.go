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
	db := filepath.Join(tmp, "data", "vaults", "secure_vault.db")

	got, err := EnsureParentDir(db)
	require.NoError(t, err)

	want := filepath.Join(tmp, "data", "vaults")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureParentDir_Idempotent(t *testing.T) {
	db := filepath.Join(t.TempDir(), "data", "vault.db")

	first, err := EnsureParentDir(db)
	require.NoError(t, err)
	second, err := EnsureParentDir(db)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureParentDir_StripsQuery(t *testing.T) {
	tmp := t.TempDir()
	got, err := EnsureParentDir(filepath.Join(tmp, "d", "vault.db") + "?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "d"), got)
}

func TestEnsureParentDir_SkipsSpecialNames(t *testing.T) {
	for _, name := range []string{"", ":memory:", "file:vault?mode=memory&cache=shared"} {
		got, err := EnsureParentDir(name)
		require.NoError(t, err, name)
		require.Empty(t, got, name)
	}

	got, err := EnsureParentDir("secure_vault.db")
	require.NoError(t, err)
	require.Equal(t, ".", got)
}

func TestEnsureParentDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := EnsureParentDir(filepath.Join(blocker, "vault.db"))
	require.Error(t, err, "should fail when a file exists with the directory name")
}
