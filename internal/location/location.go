// Package location parses the SOURCE/TARGET positional CLI arguments into
// either a local filesystem path or a remote HOST:PORT/PATH endpoint,
// following the parsing idiom of the teacher's internal/transport/location.go
// narrowed to the one remote form this protocol supports.
package location

import (
	"fmt"
	"strconv"
	"strings"
)

// Location is either LOCAL(path) or REMOTE(host, port, path).
type Location struct {
	Host string
	Port int
	Path string
}

// IsRemote reports whether l refers to a remote HTTP endpoint.
func (l Location) IsRemote() bool {
	return l.Host != ""
}

// String returns a human-readable representation.
func (l Location) String() string {
	if !l.IsRemote() {
		return l.Path
	}
	return fmt.Sprintf("%s:%d%s", l.Host, l.Port, l.Path)
}

// Parse interprets arg as either a local path or a HOST:PORT/PATH remote
// endpoint. A remote endpoint is recognized only when the segment before
// the first colon contains no path separator and is followed by a purely
// numeric port; anything else (including a bare word or an absolute path)
// is treated as local, mirroring the ambiguity rule the teacher applies to
// its own remote syntax.
func Parse(arg string) (Location, error) {
	colonIdx := strings.IndexByte(arg, ':')
	if colonIdx <= 0 {
		return Location{Path: arg}, nil
	}

	hostPart := arg[:colonIdx]
	rest := arg[colonIdx+1:]

	if strings.ContainsAny(hostPart, "/\\") {
		return Location{Path: arg}, nil
	}

	slashIdx := strings.IndexByte(rest, '/')
	if slashIdx < 0 {
		return Location{Path: arg}, nil
	}

	portStr := rest[:slashIdx]
	path := rest[slashIdx:]

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return Location{Path: arg}, nil
	}

	return Location{Host: hostPart, Port: port, Path: path}, nil
}
