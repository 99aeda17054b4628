package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
)

// Item is one regular file or object discovered under a walked root.
type Item struct {
	// Location is the absolute source location of the entry
	Location location.Location

	// RelPath is the path relative to the root, always '/'-separated
	RelPath string

	// Size is the content length in bytes
	Size int64

	// Digest is the fingerprint carried by the listing, if any
	Digest string

	// ModTime is the last modification time
	ModTime time.Time
}

// Scanner walks local and remote roots through the backend set.
type Scanner struct {
	backends backend.Set
	logger   *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner creates a scanner over backends.
func NewScanner(backends backend.Set, opts ...Option) *Scanner {
	s := &Scanner{
		backends: backends,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Walk calls fn for every entry under root that passes filter, in discovery
// order. Local roots are walked depth-first in lexical order; remote roots
// are listed recursively under the key prefix. A nil filter admits every
// entry. An error returned by fn stops the walk and is returned unchanged.
func (s *Scanner) Walk(
	ctx context.Context,
	root location.Location,
	filter *Filter,
	fn func(Item) error,
) error {
	switch root.Kind {
	case location.KindLocal:
		return s.walkLocal(ctx, root, filter, fn)
	case location.KindRemote:
		return s.walkRemote(ctx, root, filter, fn)
	default:
		return errors.NewError("walk", errors.ErrInvalidLocation).
			WithMessage("unknown location kind " + root.Kind.String())
	}
}

func (s *Scanner) walkLocal(
	ctx context.Context,
	root location.Location,
	filter *Filter,
	fn func(Item) error,
) error {
	absRoot, err := filepath.Abs(root.Path)
	if err != nil {
		return errors.NewError("walk", err).WithKey(root.Path)
	}

	return s.backends.Local.List(ctx, root, true, func(e backend.Entry) error {
		rel, err := filepath.Rel(absRoot, e.Key)
		if err != nil {
			return errors.NewError("walk", fmt.Errorf("relative path for %s: %w", e.Key, err))
		}
		// A root that is itself a file yields one item named after it.
		if rel == "." {
			rel = filepath.Base(e.Key)
		}
		rel = filepath.ToSlash(rel)

		return s.emit(filter, Item{
			Location: location.Local(e.Key),
			RelPath:  rel,
			Size:     e.Size,
			Digest:   e.Digest,
			ModTime:  e.ModTime,
		}, fn)
	})
}

func (s *Scanner) walkRemote(
	ctx context.Context,
	root location.Location,
	filter *Filter,
	fn func(Item) error,
) error {
	return s.backends.Remote.List(ctx, root, true, func(e backend.Entry) error {
		if e.IsPrefix {
			return nil
		}

		if strings.HasSuffix(e.Key, "/") {
			s.logger.Debug("skipping folder marker", "key", e.Key)
			return nil
		}
		rel := RelativeName(root.Key, e.Key)

		return s.emit(filter, Item{
			Location: location.Remote(root.Bucket, e.Key),
			RelPath:  rel,
			Size:     e.Size,
			Digest:   e.Digest,
			ModTime:  e.ModTime,
		}, fn)
	})
}

func (s *Scanner) emit(filter *Filter, item Item, fn func(Item) error) error {
	if !filter.Matches(item.RelPath) {
		s.logger.Debug("filtered out", "path", item.RelPath)
		return nil
	}
	return fn(item)
}

// RelativeKey strips prefix from key, then at most one leading '/'.
func RelativeKey(prefix, key string) string {
	rel := strings.TrimPrefix(key, prefix)
	return strings.TrimPrefix(rel, "/")
}

// RelativeName is RelativeKey for an object under a walked root. A key equal
// to the prefix is named by its final segment.
func RelativeName(prefix, key string) string {
	rel := RelativeKey(prefix, key)
	if rel == "" {
		return path.Base(key)
	}
	return rel
}
