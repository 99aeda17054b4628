package comparator

import (
	"context"
	"log/slog"
	"sort"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Comparator collects and compares trees.
type Comparator struct {
	backends backend.Set
	scanner  *scanner.Scanner
	logger   *slog.Logger
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Comparator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithScanner sets the tree walker.
func WithScanner(s *scanner.Scanner) Option {
	return func(c *Comparator) {
		c.scanner = s
	}
}

// New creates a Comparator over backends.
func New(backends backend.Set, opts ...Option) *Comparator {
	c := &Comparator{
		backends: backends,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scanner == nil {
		c.scanner = scanner.NewScanner(backends, scanner.WithLogger(c.logger))
	}
	return c
}

// Collect walks root and records the metadata of every entry that passes
// filter. When wantDigest is set, local entries are hashed; remote entries
// keep the digest their listing carried, which is empty for multipart
// uploads.
func (c *Comparator) Collect(
	ctx context.Context,
	root location.Location,
	filter *scanner.Filter,
	wantDigest bool,
) (map[string]objtypes.ObjectMetadata, error) {
	out := make(map[string]objtypes.ObjectMetadata)

	err := c.scanner.Walk(ctx, root, filter, func(item scanner.Item) error {
		meta := objtypes.ObjectMetadata{
			RelativeKey: item.RelPath,
			Size:        item.Size,
		}
		if wantDigest {
			meta.Digest = item.Digest
			if meta.Digest == "" && item.Location.IsLocal() {
				digest, err := c.backends.Local.Digest(ctx, item.Location)
				if err != nil {
					return err
				}
				meta.Digest = digest
			}
		}
		out[item.RelPath] = meta
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("collected tree", "root", root.String(), "entries", len(out))
	return out, nil
}

// Diff collects both sides and compares them. Differences are results, not
// errors.
func (c *Comparator) Diff(
	ctx context.Context,
	src, dst location.Location,
	filter *scanner.Filter,
	compareContent bool,
) (*objtypes.DiffResult, error) {
	srcMeta, err := c.Collect(ctx, src, filter, compareContent)
	if err != nil {
		return nil, err
	}
	dstMeta, err := c.Collect(ctx, dst, filter, compareContent)
	if err != nil {
		return nil, err
	}

	diffs := Compare(srcMeta, dstMeta, compareContent)
	return &objtypes.DiffResult{
		Differences: diffs,
		Summary:     Summarize(diffs),
		SourceCount: len(srcMeta),
		DestCount:   len(dstMeta),
	}, nil
}

// Compare classifies the union of keys of src and dst, sorted
// lexicographically. Equal sizes are reported as ContentDiffers only when
// compareContent is set and both digests are present and unequal.
func Compare(src, dst map[string]objtypes.ObjectMetadata, compareContent bool) []objtypes.Difference {
	keys := make([]string, 0, len(src)+len(dst))
	for k := range src {
		keys = append(keys, k)
	}
	for k := range dst {
		if _, ok := src[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var diffs []objtypes.Difference
	for _, key := range keys {
		s, inSrc := src[key]
		d, inDst := dst[key]

		switch {
		case inSrc && !inDst:
			diffs = append(diffs, objtypes.Difference{
				Key:          key,
				Kind:         objtypes.OnlyInSource,
				SourceSize:   s.Size,
				SourceDigest: s.Digest,
			})
		case !inSrc && inDst:
			diffs = append(diffs, objtypes.Difference{
				Key:        key,
				Kind:       objtypes.OnlyInDest,
				DestSize:   d.Size,
				DestDigest: d.Digest,
			})
		case s.Size != d.Size:
			diffs = append(diffs, objtypes.Difference{
				Key:        key,
				Kind:       objtypes.SizeDiffers,
				SourceSize: s.Size,
				DestSize:   d.Size,
			})
		case compareContent && s.Digest != "" && d.Digest != "" && s.Digest != d.Digest:
			diffs = append(diffs, objtypes.Difference{
				Key:          key,
				Kind:         objtypes.ContentDiffers,
				SourceSize:   s.Size,
				DestSize:     d.Size,
				SourceDigest: s.Digest,
				DestDigest:   d.Digest,
			})
		}
	}
	return diffs
}

// Summarize counts differences per kind.
func Summarize(diffs []objtypes.Difference) objtypes.DiffSummary {
	var sum objtypes.DiffSummary
	for _, d := range diffs {
		switch d.Kind {
		case objtypes.OnlyInSource:
			sum.OnlyInSource++
		case objtypes.OnlyInDest:
			sum.OnlyInDest++
		case objtypes.SizeDiffers:
			sum.SizeDiffers++
		case objtypes.ContentDiffers:
			sum.ContentDiffers++
		}
	}
	sum.Total = len(diffs)
	return sum
}
