package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverReceipts(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "b.PDF"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.png"))
	touch(t, filepath.Join(root, ".hidden.jpg"))
	touch(t, filepath.Join(root, ".cache", "d.jpg"))

	got, err := DiscoverReceipts(root)
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "a.jpg"),
		filepath.Join(root, "b.PDF"),
		filepath.Join(root, "sub", "c.png"),
	}
	assert.ElementsMatch(t, want, got)
}

func TestDiscoverReceiptsMissingRoot(t *testing.T) {
	_, err := DiscoverReceipts(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestAllowedExt(t *testing.T) {
	assert.True(t, AllowedExt(".jpg"))
	assert.True(t, AllowedExt(".HEIC"))
	assert.True(t, AllowedExt("pdf"))
	assert.False(t, AllowedExt(".txt"))
	assert.False(t, AllowedExt(""))
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/data/.cache"))
	assert.True(t, IsHidden(".env"))
	assert.False(t, IsHidden("/data/receipts"))
}
