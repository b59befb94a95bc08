package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiffcopy/pdiffcopy/internal/pdiffcopyerr"
)

func TestWriteAndReadRecordsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	records := []Record{
		{Offset: 0, Digest: []byte{1, 2, 3, 4}},
		{Offset: 4096, Digest: []byte{5, 6, 7, 8}},
		{Offset: 8192, Digest: []byte{9, 10, 11, 12}},
	}
	for _, r := range records {
		require.NoError(t, WriteRecord(&buf, r, 4))
	}

	rr := NewRecordReader(&buf, 4)
	for _, want := range records {
		got, err := rr.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := rr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteRecordWrongDigestLength(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRecord(&buf, Record{Offset: 0, Digest: []byte{1, 2}}, 4)
	assert.ErrorIs(t, err, pdiffcopyerr.ProtocolError)
}

func TestRecordReaderRejectsOutOfOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, Record{Offset: 10, Digest: []byte{1, 2}}, 2))
	require.NoError(t, WriteRecord(&buf, Record{Offset: 5, Digest: []byte{3, 4}}, 2))

	rr := NewRecordReader(&buf, 2)
	_, err := rr.Next()
	require.NoError(t, err)
	_, err = rr.Next()
	assert.ErrorIs(t, err, pdiffcopyerr.ProtocolError)
}

func TestRecordReaderTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, Record{Offset: 0, Digest: []byte{1, 2, 3, 4}}, 4))
	truncated := buf.Bytes()[:6]

	rr := NewRecordReader(bytes.NewReader(truncated), 4)
	_, err := rr.Next()
	assert.Error(t, err)
}

func TestURLBuilders(t *testing.T) {
	assert.Equal(t, "http://host:8080/data.bin?action=info", InfoURL("http", "host", 8080, "/data.bin"))

	u := HashesURL("http", "host", 8080, "/data.bin", 4096, "sha1", 4)
	assert.Contains(t, u, "action=hashes")
	assert.Contains(t, u, "block_size=4096")
	assert.Contains(t, u, "method=sha1")
	assert.Contains(t, u, "concurrency=4")

	u = BlockReadURL("http", "host", 8080, "/data.bin", 100, 50)
	assert.Contains(t, u, "action=block")
	assert.Contains(t, u, "offset=100")
	assert.Contains(t, u, "length=50")

	u = BlockWriteURL("http", "host", 8080, "/data.bin", 200)
	assert.Contains(t, u, "action=block")
	assert.Contains(t, u, "offset=200")
}
