package fsutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/filechanger/filechanger/pkg/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameAndSync(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	os.WriteFile(src, []byte("data"), 0644)

	err := fsutil.RenameAndSync(src, dst)
	require.NoError(t, err)

	assert.NoFileExists(t, src)
	content, _ := os.ReadFile(dst)
	assert.Equal(t, "data", string(content))
}

func TestRenameAndSync_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := fsutil.RenameAndSync(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRenameNoClobber_Renames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Bbc.txt")
	dst := filepath.Join(dir, "Aab.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	require.NoError(t, fsutil.RenameNoClobber(src, dst))
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)
}

func TestRenameNoClobber_RefusesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "b.txt")
	dst := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	err := fsutil.RenameNoClobber(src, dst)
	require.ErrorIs(t, err, fsutil.ErrDestinationExists)

	content, _ := os.ReadFile(dst)
	assert.Equal(t, "old", string(content), "destination must be untouched")
	assert.FileExists(t, src)
}

func TestRenameNoClobber_SamePath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "123.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	require.NoError(t, fsutil.RenameNoClobber(src, src))
	assert.FileExists(t, src)
}

func TestFsyncDir(t *testing.T) {
	dir := t.TempDir()
	err := fsutil.FsyncDir(dir)
	assert.NoError(t, err)
}

func TestFsyncDir_Missing(t *testing.T) {
	err := fsutil.FsyncDir(filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}
