// Package digest resolves hash method names to hash.Hash constructors and
// computes the digest of a single file block. It is the block hasher (C1)
// of the design: a pure function of (path, offset, length, method).
package digest

import (
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/pdiffcopy/pdiffcopy/internal/pdiffcopyerr"
)

// Method identifies a supported content digest algorithm.
type Method string

// Supported hash methods. sha1 matches the original implementation's default.
const (
	SHA1    Method = "sha1"
	SHA256  Method = "sha256"
	BLAKE3  Method = "blake3"
	XXHash  Method = "xxhash"
	Default Method = SHA1
)

var newHash = map[Method]func() hash.Hash{
	SHA1:   sha1.New,
	SHA256: sha256.New,
	BLAKE3: func() hash.Hash { return blake3.New() },
	XXHash: func() hash.Hash { return xxhash.New() },
}

// Len returns the digest length in bytes for method, or 0 if unrecognized.
func Len(method Method) int {
	h, ok := newHash[normalize(method)]
	if !ok {
		return 0
	}
	return h().Size()
}

// Valid reports whether method is a recognized hash method name.
func Valid(method Method) bool {
	_, ok := newHash[normalize(method)]
	return ok
}

func normalize(method Method) Method {
	return Method(strings.ToLower(strings.TrimSpace(string(method))))
}

// New returns a fresh hash.Hash for method, or UnknownHash if unrecognized.
func New(method Method) (hash.Hash, error) {
	ctor, ok := newHash[normalize(method)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", method, pdiffcopyerr.UnknownHash)
	}
	return ctor(), nil
}

// HashBlock opens path, seeks to offset, reads exactly length bytes (or
// fewer at EOF only when length spans to the end of the file) and returns
// the digest computed with method. It never shares a file descriptor with
// another call, so it is safe to invoke concurrently from many workers on
// distinct or overlapping offsets of the same file.
func HashBlock(path string, offset int64, length int64, method Method) ([]byte, error) {
	h, err := New(method)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, wrapIO(err))
	}
	defer f.Close()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s at %d: %w", path, offset, wrapIO(err))
	}
	h.Write(buf[:n])
	return h.Sum(nil), nil
}

func wrapIO(err error) error {
	return fmt.Errorf("%w: %v", pdiffcopyerr.IOError, err)
}
