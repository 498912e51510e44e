package walk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRecursive(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "bin"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "lib", "pkgconfig"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "bin", "sh"), []byte("x"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "lib", "libc.so"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "lib", "pkgconfig", "zlib.pc"), []byte("x"), 0644))

	files, err := List(tmpDir)
	require.NoError(t, err)

	want := []string{
		filepath.Join(tmpDir, "bin", "sh"),
		filepath.Join(tmpDir, "lib", "libc.so"),
		filepath.Join(tmpDir, "lib", "pkgconfig", "zlib.pc"),
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestListExcludesDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "empty", "nested"), 0755))

	files, err := List(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListSkipsSymlinks(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	require.NoError(t, os.Symlink(target, filepath.Join(tmpDir, "alias.txt")))
	// Dangling link too.
	require.NoError(t, os.Symlink(filepath.Join(tmpDir, "gone"), filepath.Join(tmpDir, "broken")))

	files, err := List(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{target}, files)
}

func TestListRootMissing(t *testing.T) {
	t.Run("nonexistent root", func(t *testing.T) {
		_, err := List(filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, ErrRootMissing)
	})

	t.Run("root is a file", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "file")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

		_, err := List(path)
		assert.ErrorIs(t, err, ErrRootMissing)
	})
}
