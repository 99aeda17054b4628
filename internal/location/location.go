// Package location parses user-supplied paths into local or remote locations.
package location

import (
	"path/filepath"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
)

// Scheme is the prefix that marks a remote location.
const Scheme = "s3://"

// Kind identifies which backend a location belongs to.
type Kind int

const (
	// KindLocal is a path on the local filesystem.
	KindLocal Kind = iota
	// KindRemote is a bucket/key pair in the object store.
	KindRemote
)

// String returns a human readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Location is either a local path or a remote bucket and key.
type Location struct {
	Kind   Kind
	Path   string
	Bucket string
	Key    string
}

// Local returns a local location for path.
func Local(path string) Location {
	return Location{Kind: KindLocal, Path: path}
}

// Remote returns a remote location for bucket and key.
func Remote(bucket, key string) Location {
	return Location{Kind: KindRemote, Bucket: bucket, Key: key}
}

// Parse classifies s. Strings beginning with s3:// are remote; the bucket runs
// up to the first '/' and the key is the remainder. Anything else is a local
// path taken verbatim. The filesystem is not consulted.
func Parse(s string) (Location, error) {
	rest, ok := strings.CutPrefix(s, Scheme)
	if !ok {
		return Local(s), nil
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, errors.NewError("parse", errors.ErrInvalidLocation).
			WithMessage("empty bucket in " + s)
	}

	return Remote(bucket, key), nil
}

// IsLocal reports whether the location is on the local filesystem.
func (l Location) IsLocal() bool { return l.Kind == KindLocal }

// IsRemote reports whether the location is in the object store.
func (l Location) IsRemote() bool { return l.Kind == KindRemote }

// String renders the location in the same form Parse accepts.
func (l Location) String() string {
	if l.Kind == KindLocal {
		return l.Path
	}
	if l.Key == "" {
		return Scheme + l.Bucket
	}
	return Scheme + l.Bucket + "/" + l.Key
}

// Join returns the child location for a '/'-separated relative path.
func (l Location) Join(rel string) Location {
	if l.Kind == KindLocal {
		return Local(filepath.Join(l.Path, filepath.FromSlash(rel)))
	}
	return Remote(l.Bucket, JoinKey(l.Key, rel))
}

// JoinWithin is Join for entries discovered under a walked root. A local
// result must stay inside l: a relative path that is absolute or climbs out
// with ".." is rejected with errors.ErrInvalidLocation. Remote keys are
// opaque strings and are joined unchanged.
func (l Location) JoinWithin(rel string) (Location, error) {
	if l.Kind == KindLocal && !IsContained(rel) {
		return Location{}, errors.NewError("join", errors.ErrInvalidLocation).
			WithKey(rel).
			WithMessage("path escapes destination " + l.Path)
	}
	return l.Join(rel), nil
}

// IsContained reports whether the '/'-separated relative path rel stays
// below the directory it is joined to.
func IsContained(rel string) bool {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || strings.HasPrefix(rel, "/") {
		return false
	}
	return clean != ".." && !strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

// Base returns the final element of the location's path or key.
func (l Location) Base() string {
	if l.Kind == KindLocal {
		return filepath.Base(l.Path)
	}
	key := strings.TrimRight(l.Key, "/")
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// IsDirLike reports whether the location names a directory or key prefix by
// its spelling alone: a trailing separator, or a remote location with no key.
func (l Location) IsDirLike() bool {
	if l.Kind == KindLocal {
		return strings.HasSuffix(l.Path, "/") || strings.HasSuffix(l.Path, string(filepath.Separator))
	}
	return l.Key == "" || strings.HasSuffix(l.Key, "/")
}

// JoinKey joins a key prefix and a name with exactly one '/'.
//
//	JoinKey("prefix", "file.txt")  == "prefix/file.txt"
//	JoinKey("prefix/", "file.txt") == "prefix/file.txt"
//	JoinKey("", "/file.txt")       == "file.txt"
func JoinKey(prefix, name string) string {
	name = strings.TrimLeft(name, "/")
	if prefix == "" {
		return name
	}
	if strings.HasSuffix(prefix, "/") {
		return prefix + name
	}
	return prefix + "/" + name
}

// Pair is an ordered (source, destination) kind combination used to dispatch
// transfers.
type Pair struct {
	Src Kind
	Dst Kind
}

// The four supported transfer directions.
var (
	LocalToRemote  = Pair{KindLocal, KindRemote}
	RemoteToLocal  = Pair{KindRemote, KindLocal}
	RemoteToRemote = Pair{KindRemote, KindRemote}
	LocalToLocal   = Pair{KindLocal, KindLocal}
)

// PairOf returns the direction of a transfer from src to dst.
func PairOf(src, dst Location) Pair {
	return Pair{Src: src.Kind, Dst: dst.Kind}
}

// String renders the pair as "local->remote" and so on.
func (p Pair) String() string {
	return p.Src.String() + "->" + p.Dst.String()
}
