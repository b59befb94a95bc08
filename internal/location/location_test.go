package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocal(t *testing.T) {
	for _, arg := range []string{"/abs/path", "relative/path", "./rel", "file.txt"} {
		loc, err := Parse(arg)
		require.NoError(t, err)
		assert.False(t, loc.IsRemote())
		assert.Equal(t, arg, loc.Path)
	}
}

func TestParseRemote(t *testing.T) {
	loc, err := Parse("example.com:8080/data/file.bin")
	require.NoError(t, err)
	assert.True(t, loc.IsRemote())
	assert.Equal(t, "example.com", loc.Host)
	assert.Equal(t, 8080, loc.Port)
	assert.Equal(t, "/data/file.bin", loc.Path)
}

func TestParseRemoteWithIPHost(t *testing.T) {
	loc, err := Parse("10.0.0.5:9000/x")
	require.NoError(t, err)
	assert.True(t, loc.IsRemote())
	assert.Equal(t, "10.0.0.5", loc.Host)
	assert.Equal(t, 9000, loc.Port)
}

func TestParseLocalWithColonButNoSlashAfterPort(t *testing.T) {
	loc, err := Parse("host:notaport")
	require.NoError(t, err)
	assert.False(t, loc.IsRemote())
}

func TestParseLocalPathContainingColon(t *testing.T) {
	loc, err := Parse("dir/file:with:colons")
	require.NoError(t, err)
	assert.False(t, loc.IsRemote())
	assert.Equal(t, "dir/file:with:colons", loc.Path)
}

func TestString(t *testing.T) {
	assert.Equal(t, "/a/b", Location{Path: "/a/b"}.String())
	assert.Equal(t, "host:80/p", Location{Host: "host", Port: 80, Path: "/p"}.String())
}
