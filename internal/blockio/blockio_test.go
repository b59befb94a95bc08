package blockio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiffcopy/pdiffcopy/internal/pdiffcopyerr"
)

func TestReadWriteWindowRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))

	f, err := OpenForBlockIO(path, true)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, WriteWindow(f, 10, []byte("hello")))
	require.NoError(t, WriteWindow(f, 50, []byte("world")))

	got, err := ReadWindow(f, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	got, err = ReadWindow(f, 50, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), got)
}

func TestReadWindowShortFinalBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	f, err := OpenForBlockIO(path, false)
	require.NoError(t, err)
	defer f.Close()

	got, err := ReadWindow(f, 8, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("89"), got)
}

func TestConcurrentDisjointWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 40), 0o644))

	f, err := OpenForBlockIO(path, true)
	require.NoError(t, err)
	defer f.Close()

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func(i int) {
			data := []byte{byte('a' + i), byte('a' + i), byte('a' + i), byte('a' + i), byte('a' + i)}
			done <- WriteWindow(f, int64(i*10), data)
		}(i)
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}

	for i := 0; i < 4; i++ {
		got, err := ReadWindow(f, int64(i*10), 5)
		require.NoError(t, err)
		want := []byte{byte('a' + i), byte('a' + i), byte('a' + i), byte('a' + i), byte('a' + i)}
		assert.Equal(t, want, got)
	}
}

func TestSizeNotFound(t *testing.T) {
	_, err := Size(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, pdiffcopyerr.NotFound)
}

func TestResizeGrowAndShrink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")

	require.NoError(t, Resize(path, 100))
	sz, err := Size(path)
	require.NoError(t, err)
	assert.EqualValues(t, 100, sz)

	require.NoError(t, Resize(path, 10))
	sz, err = Size(path)
	require.NoError(t, err)
	assert.EqualValues(t, 10, sz)
}
