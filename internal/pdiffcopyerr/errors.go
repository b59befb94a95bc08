// Package pdiffcopyerr defines the error taxonomy shared by every layer of
// pdiffcopy: the block hasher, the work pool, the delta computer, the
// transfer engine and the HTTP client/server. Each kind is a sentinel that
// satisfies errors.Is so callers can classify a failure without string
// matching, mirroring the wrapped-sentinel style used throughout
// internal/engine in the teacher repository.
package pdiffcopyerr

import "errors"

// Sentinel error kinds. Wrap these with fmt.Errorf("...: %w", Kind) at the
// point of failure so both the underlying cause and the kind survive.
var (
	// IOError is raised when a local disk read or write fails.
	IOError = errors.New("io error")
	// SizeMismatch is raised when the source and target files differ in size.
	SizeMismatch = errors.New("size mismatch")
	// UnknownHash is raised when a hash method name is not recognized.
	UnknownHash = errors.New("unknown hash method")
	// ProtocolError is raised on a malformed or out-of-order hash stream,
	// an unexpected HTTP status, or a truncated block response.
	ProtocolError = errors.New("protocol error")
	// NetworkError is raised on a transport-level failure.
	NetworkError = errors.New("network error")
	// NotFound is raised when a remote path does not exist.
	NotFound = errors.New("not found")
	// Cancelled is raised when a transfer is stopped by external cancellation.
	Cancelled = errors.New("cancelled")
)

// Kind returns the sentinel from this package that err wraps, or nil if err
// does not wrap any of them.
func Kind(err error) error {
	for _, kind := range []error{IOError, SizeMismatch, UnknownHash, ProtocolError, NetworkError, NotFound, Cancelled} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// ExitCode maps an error's kind to a process exit code. Nil maps to 0.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, Cancelled):
		return 130
	case errors.Is(err, SizeMismatch), errors.Is(err, UnknownHash), errors.Is(err, NotFound):
		return 1
	case errors.Is(err, ProtocolError), errors.Is(err, NetworkError), errors.Is(err, IOError):
		return 2
	default:
		return 1
	}
}
