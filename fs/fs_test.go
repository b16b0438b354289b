package fs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/shipgate/fs"
)

func TestExists(t *testing.T) {
	fsys := fs.NewInMemory()
	require.NoError(t, fsys.WriteFile("site/index.html", []byte("<html/>"), 0o644))

	ok, err := fsys.Exists("site/index.html")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fsys.Exists("site/missing.html")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteFileCreatesParents(t *testing.T) {
	fsys := fs.NewInMemory()
	require.NoError(t, fsys.WriteFile("a/b/c/file.txt", []byte("x"), 0o644))

	data, err := fsys.ReadFile("a/b/c/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestIsEmptyDir(t *testing.T) {
	fsys := fs.NewInMemory()

	// Missing path counts as empty.
	empty, err := fsys.IsEmptyDir("staging")
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, fsys.WriteFile("staging/index.html", []byte("x"), 0o644))
	empty, err = fsys.IsEmptyDir("staging")
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestRemoveAllMissingPathIsNoop(t *testing.T) {
	fsys := fs.NewInMemory()
	assert.NoError(t, fsys.RemoveAll("never/created"))
}

func TestCopyDir(t *testing.T) {
	fsys := fs.NewInMemory()
	require.NoError(t, fsys.WriteFile("out/index.html", []byte("site"), 0o644))
	require.NoError(t, fsys.WriteFile("out/assets/app.css", []byte("css"), 0o644))

	require.NoError(t, fsys.CopyDir("out", "staging/public"))

	data, err := fsys.ReadFile("staging/public/index.html")
	require.NoError(t, err)
	assert.Equal(t, "site", string(data))

	data, err = fsys.ReadFile("staging/public/assets/app.css")
	require.NoError(t, err)
	assert.Equal(t, "css", string(data))
}

func TestCopyDirOverwritesExistingFiles(t *testing.T) {
	fsys := fs.NewInMemory()
	require.NoError(t, fsys.WriteFile("src/index.html", []byte("new"), 0o644))
	require.NoError(t, fsys.WriteFile("dst/index.html", []byte("old"), 0o644))
	require.NoError(t, fsys.WriteFile("dst/keep.txt", []byte("kept"), 0o644))

	require.NoError(t, fsys.CopyDir("src", "dst"))

	data, err := fsys.ReadFile("dst/index.html")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	data, err = fsys.ReadFile("dst/keep.txt")
	require.NoError(t, err)
	assert.Equal(t, "kept", string(data))
}

func TestCopyDirRejectsFileSource(t *testing.T) {
	fsys := fs.NewInMemory()
	require.NoError(t, fsys.WriteFile("plain.txt", []byte("x"), 0o644))
	assert.Error(t, fsys.CopyDir("plain.txt", "dst"))
}
