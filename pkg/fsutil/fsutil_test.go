package fsutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "202101_speed.log", "202102_speed.log", "readme.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.log"), 0o755))

	files, err := List(dir, ".log")
	require.NoError(t, err)
	require.Len(t, files, 2)

	names := []string{files[0].Name, files[1].Name}
	assert.ElementsMatch(t, []string{"202101_speed.log", "202102_speed.log"}, names)
	for _, f := range files {
		assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
		assert.False(t, f.ModTime.IsZero())
	}

	all, err := List(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestList_MissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "nope"), ".log")
	assert.Error(t, err)
}

func TestFindByName(t *testing.T) {
	files := []FileHandle{{Name: "202101.csv"}, {Name: "202102.csv"}}

	f, ok := FindByName(files, "202102.csv")
	assert.True(t, ok)
	assert.Equal(t, "202102.csv", f.Name)

	_, ok = FindByName(files, "202103.csv")
	assert.False(t, ok)
}

func TestFileHandle_IsNewer(t *testing.T) {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	older := FileHandle{ModTime: base}
	newer := FileHandle{ModTime: base.Add(time.Second)}

	assert.True(t, newer.IsNewer(older))
	assert.False(t, older.IsNewer(newer))
	assert.False(t, older.IsNewer(older), "equal mtimes are not newer")
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "202103.csv")

	require.NoError(t, AtomicWriteFile(path, []byte("first"), 0o644))
	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestAtomicWriteFile_MissingDir(t *testing.T) {
	err := AtomicWriteFile(filepath.Join(t.TempDir(), "nope", "x.csv"), []byte("x"), 0o644)
	assert.Error(t, err)
}
