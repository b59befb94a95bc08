// Package wire implements the on-the-wire encoding shared by the client and
// server: fixed-width binary hash-stream records and the query-string
// contract of the four HTTP routes. It is the Go realization of the
// self-delimiting frame idiom in the teacher's internal/transport/proto,
// reduced to the single record type this protocol needs.
package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/pdiffcopy/pdiffcopy/internal/pdiffcopyerr"
)

// Action names used as the "action" query parameter.
const (
	ActionInfo   = "info"
	ActionHashes = "hashes"
	ActionBlock  = "block"
	// ActionResize is not part of the core wire contract; it backs the
	// optional --auto-resize client behavior (see internal/client), which
	// creates or truncates the remote file to a given size before the
	// core synchronize flow's size-match precondition is checked.
	ActionResize = "resize"
)

// Record is one entry of a hash stream: the offset of a block and its
// digest, computed with the hash method that the stream was requested with.
type Record struct {
	Offset int64
	Digest []byte
}

// WriteRecord appends the wire encoding of r to w: an 8-byte big-endian
// offset followed by the digest bytes verbatim. digestLen is the digest
// length previously agreed by both sides via the hash method name, so no
// length prefix is needed on the digest itself.
func WriteRecord(w io.Writer, r Record, digestLen int) error {
	if len(r.Digest) != digestLen {
		return fmt.Errorf("record digest length %d, want %d: %w", len(r.Digest), digestLen, pdiffcopyerr.ProtocolError)
	}
	var hdr [8]byte
	binary.BigEndian.PutUint64(hdr[:], uint64(r.Offset))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write record offset: %w", wrapNetwork(err))
	}
	if _, err := w.Write(r.Digest); err != nil {
		return fmt.Errorf("write record digest: %w", wrapNetwork(err))
	}
	return nil
}

// RecordReader reads a stream of fixed-width Records from an underlying
// reader, validating that offsets strictly increase.
type RecordReader struct {
	r         *bufio.Reader
	digestLen int
	lastOff   int64
	seenAny   bool
}

// NewRecordReader wraps r for decoding a hash stream whose digest length is
// digestLen bytes (see digest.Len).
func NewRecordReader(r io.Reader, digestLen int) *RecordReader {
	return &RecordReader{r: bufio.NewReaderSize(r, 64<<10), digestLen: digestLen}
}

// Next returns the next record, or io.EOF once the stream is exhausted.
// It returns ProtocolError if a record is truncated or its offset does not
// strictly increase relative to the previous record.
func (rr *RecordReader) Next() (Record, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(rr.r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("read record offset: %w", protocolOrNetwork(err))
	}
	offset := int64(binary.BigEndian.Uint64(hdr[:]))

	digest := make([]byte, rr.digestLen)
	if _, err := io.ReadFull(rr.r, digest); err != nil {
		return Record{}, fmt.Errorf("read record digest: %w", protocolOrNetwork(err))
	}

	if rr.seenAny && offset <= rr.lastOff {
		return Record{}, fmt.Errorf("offset %d out of order after %d: %w", offset, rr.lastOff, pdiffcopyerr.ProtocolError)
	}
	rr.lastOff = offset
	rr.seenAny = true

	return Record{Offset: offset, Digest: digest}, nil
}

func protocolOrNetwork(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", pdiffcopyerr.ProtocolError, err)
	}
	return wrapNetwork(err)
}

func wrapNetwork(err error) error {
	return fmt.Errorf("%w: %v", pdiffcopyerr.NetworkError, err)
}

// InfoURL builds the URL for the "info" action against path on host:port.
func InfoURL(scheme, host string, port int, path string) string {
	return actionURL(scheme, host, port, path, url.Values{"action": {ActionInfo}})
}

// HashesURL builds the URL for the "hashes" action.
func HashesURL(scheme, host string, port int, path string, blockSize int64, method string, concurrency int) string {
	v := url.Values{
		"action":      {ActionHashes},
		"block_size":  {strconv.FormatInt(blockSize, 10)},
		"method":      {method},
		"concurrency": {strconv.Itoa(concurrency)},
	}
	return actionURL(scheme, host, port, path, v)
}

// BlockReadURL builds the URL for reading a block with the "block" action.
func BlockReadURL(scheme, host string, port int, path string, offset, length int64) string {
	v := url.Values{
		"action": {ActionBlock},
		"offset": {strconv.FormatInt(offset, 10)},
		"length": {strconv.FormatInt(length, 10)},
	}
	return actionURL(scheme, host, port, path, v)
}

// BlockBaseURL builds the base URL for the "block" action, without an
// offset/length/PUT-only query component, so a caller can append its own
// "&offset=..." (and, for reads, "&length=...") per request without
// re-encoding the action and path on every call. Used by internal/xfer,
// which issues many block requests against the same file.
func BlockBaseURL(scheme, host string, port int, path string) string {
	v := url.Values{"action": {ActionBlock}}
	return actionURL(scheme, host, port, path, v)
}

// BlockWriteURL builds the URL for writing a block with the "block" action.
func BlockWriteURL(scheme, host string, port int, path string, offset int64) string {
	v := url.Values{
		"action": {ActionBlock},
		"offset": {strconv.FormatInt(offset, 10)},
	}
	return actionURL(scheme, host, port, path, v)
}

// ResizeURL builds the URL for the "resize" action.
func ResizeURL(scheme, host string, port int, path string, size int64) string {
	v := url.Values{
		"action": {ActionResize},
		"size":   {strconv.FormatInt(size, 10)},
	}
	return actionURL(scheme, host, port, path, v)
}

func actionURL(scheme, host string, port int, path string, v url.Values) string {
	u := url.URL{
		Scheme:   scheme,
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     path,
		RawQuery: v.Encode(),
	}
	return u.String()
}
