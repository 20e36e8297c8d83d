package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_ReadWrite(t *testing.T) {
	mfs := NewMemoryFileSystem()

	err := mfs.WriteFile("/trips/trip.csv", []byte("x"), 0o644)
	require.Error(t, err, "parent directory must exist")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, mfs.MkdirAll("/trips", 0o755))
	require.NoError(t, mfs.WriteFile("/trips/trip.csv", []byte("Logging Time,Speed\n"), 0o644))

	data, err := mfs.ReadFile("/trips/../trips/trip.csv")
	require.NoError(t, err)
	assert.Equal(t, "Logging Time,Speed\n", string(data))

	data[0] = 'X'
	again, _ := mfs.ReadFile("/trips/trip.csv")
	assert.Equal(t, byte('L'), again[0], "ReadFile returns a copy")

	_, err = mfs.ReadFile("/missing.csv")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/out/reports", 0o755))
	require.NoError(t, mfs.WriteFile("/out/reports/a.html", []byte("hello"), 0o644))

	info, err := mfs.Stat("/out/reports/a.html")
	require.NoError(t, err)
	assert.Equal(t, "a.html", info.Name())
	assert.Equal(t, int64(5), info.Size())
	assert.False(t, info.IsDir())

	info, err = mfs.Stat("/out")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Error(t, mfs.MkdirAll("/out/reports/a.html/x", 0o755))
}

func TestReadLimited(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/trip.csv", make([]byte, 100), 0o644))

	data, err := ReadLimited(mfs, "/trip.csv", 100)
	require.NoError(t, err)
	assert.Len(t, data, 100)

	_, err = ReadLimited(mfs, "/trip.csv", 99)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = ReadLimited(mfs, "/trip.csv", 0)
	assert.NoError(t, err)

	_, err = ReadLimited(mfs, "/", 0)
	assert.Error(t, err)

	_, err = ReadLimited(mfs, "/missing.csv", 0)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWriteInDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	p, err := WriteInDir(mfs, "/out/2024", "SPM_Report.json", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out/2024", "SPM_Report.json"), p)
	assert.Equal(t, []string{"/out/2024/SPM_Report.json"}, mfs.FilesUnder("/out"))
	assert.Empty(t, mfs.FilesUnder("/elsewhere"))
}

func TestOSFileSystem(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "nested")

	p, err := WriteInDir(fsys, dir, "out.txt", []byte("ok"))
	require.NoError(t, err)

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(got))

	data, err := ReadLimited(fsys, p, 10)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}
