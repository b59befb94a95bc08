// Package delta compares two ascending-offset hash streams (local and
// remote) and produces the set of block offsets whose digests differ. The
// comparison is a lock-step merge over both streams, generalized from the
// paired-hash matching idiom in the teacher's internal/transport/delta.go
// down to the fixed-offset, fixed-block-size case this protocol requires
// (both sides partition the same file size with the same block size, so
// there is no need for the teacher's rolling-hash resynchronization logic).
package delta

import (
	"fmt"
	"io"

	"github.com/pdiffcopy/pdiffcopy/internal/pdiffcopyerr"
	"github.com/pdiffcopy/pdiffcopy/internal/wire"
)

// Range is one differing block: its offset and length.
type Range struct {
	Offset int64
	Length int64
}

// Stream produces one wire.Record at a time in ascending offset order.
type Stream interface {
	Next() (wire.Record, error)
}

// Compute reads local and remote to completion and returns the offsets
// whose digests differ. size and blockSize determine each block's length
// (the final block may be shorter). Both streams must be exhausted and
// agree on every offset in [0, size) in ascending order; a stream that
// omits or reorders an offset is a protocol error.
func Compute(local, remote Stream, size int64, blockSize int64) ([]Range, error) {
	var diff []Range

	localRec, localErr := local.Next()
	remoteRec, remoteErr := remote.Next()

	for offset := int64(0); offset < size; offset += blockSize {
		length := blockSize
		if offset+length > size {
			length = size - offset
		}

		lok := localErr == nil
		rok := remoteErr == nil

		if !lok && localErr != io.EOF {
			return nil, fmt.Errorf("read local hash stream: %w", localErr)
		}
		if !rok && remoteErr != io.EOF {
			return nil, fmt.Errorf("read remote hash stream: %w", remoteErr)
		}
		if !lok || !rok {
			return nil, fmt.Errorf("hash stream ended before offset %d: %w", offset, pdiffcopyerr.ProtocolError)
		}
		if localRec.Offset != offset || remoteRec.Offset != offset {
			return nil, fmt.Errorf("hash stream offset mismatch at %d (local=%d remote=%d): %w",
				offset, localRec.Offset, remoteRec.Offset, pdiffcopyerr.ProtocolError)
		}

		if !equalDigest(localRec.Digest, remoteRec.Digest) {
			diff = append(diff, Range{Offset: offset, Length: length})
		}

		localRec, localErr = local.Next()
		remoteRec, remoteErr = remote.Next()
	}

	if localErr != io.EOF || remoteErr != io.EOF {
		return nil, fmt.Errorf("hash stream longer than expected file size %d: %w", size, pdiffcopyerr.ProtocolError)
	}

	return diff, nil
}

// WholeFile returns every block offset in [0, size) as a Range, bypassing
// hashing entirely: this is what --whole-file mode transfers unconditionally.
func WholeFile(size int64, blockSize int64) []Range {
	var ranges []Range
	for offset := int64(0); offset < size; offset += blockSize {
		length := blockSize
		if offset+length > size {
			length = size - offset
		}
		ranges = append(ranges, Range{Offset: offset, Length: length})
	}
	return ranges
}

func equalDigest(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
