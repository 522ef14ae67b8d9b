package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRemoveTree deletes nested content including symlinks, without following them.
func TestRemoveTree(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	keep := filepath.Join(outside, "keep.txt")
	require.NoError(t, os.WriteFile(keep, []byte("keep"), 0o644))

	root := filepath.Join(t.TempDir(), "Blender 4.1")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "4.1", "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "blender"), []byte("bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "4.1", "scripts", "a.py"), []byte("a"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	require.Zero(t, RemoveTree(root))

	_, err := os.Lstat(root)
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(keep)
	require.NoError(t, err)
}

// TestRemoveTree_Missing treats an absent root as nothing to do.
func TestRemoveTree_Missing(t *testing.T) {
	t.Parallel()

	require.Zero(t, RemoveTree(filepath.Join(t.TempDir(), "absent")))
}

// TestRemoveTree_ContinuesAfterFailure removes what it can and counts the rest.
func TestRemoveTree_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	root := filepath.Join(t.TempDir(), "install")
	locked := filepath.Join(root, "a-locked")
	require.NoError(t, os.MkdirAll(locked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(locked, "stuck"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "z-free"), []byte("y"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o555))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	failures := RemoveTree(root)
	// stuck cannot be unlinked, so a-locked and root stay non-empty.
	require.Equal(t, 3, failures)

	_, err := os.Stat(filepath.Join(root, "z-free"))
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(filepath.Join(locked, "stuck"))
	require.NoError(t, err)
}

// TestRemoveTree_UnreadableDirCountedOnce counts a directory that can be neither listed nor removed once.
func TestRemoveTree_UnreadableDirCountedOnce(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	root := filepath.Join(t.TempDir(), "install")
	sealed := filepath.Join(root, "sealed")
	require.NoError(t, os.MkdirAll(sealed, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sealed, "inner"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "z-free"), []byte("y"), 0o644))
	require.NoError(t, os.Chmod(sealed, 0o000))
	t.Cleanup(func() { _ = os.Chmod(sealed, 0o755) })

	// sealed fails to list and to remove; root stays non-empty.
	require.Equal(t, 2, RemoveTree(root))

	_, err := os.Stat(filepath.Join(root, "z-free"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
