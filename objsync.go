package objsync

import (
	"context"
	"io"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/rangespec"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Copy copies src to dst. Either side may be a local path or an s3:// URI.
//
// Without WithRecursive, src names one file or object. A destination that
// ends in '/', names a bucket, or is an existing local directory receives
// the source's base name. Uploads at or above the multipart threshold are
// sent in parts.
//
// With WithRecursive, every entry under src that passes the include and
// exclude patterns is copied to the same relative path under dst, one at a
// time. The first failure stops the copy and the transfers completed so far
// are returned with the error. Recursive local to local copies return
// ErrNotImplemented.
//
// Errors:
//   - ErrInvalidLocation: If either location is malformed
//   - ErrInvalidPattern: If an include or exclude pattern is malformed
//   - ErrInvalidChecksumOption: If checksum mode or algorithm is unsupported
//   - ErrObjectNotFound / ErrBucketNotFound: If the source does not exist
//
// Example:
//
//	res, err := client.Copy(ctx, "./build", "s3://artifacts/build/",
//	    objsync.WithRecursive(true),
//	    objsync.WithCopyExclude("*.tmp"),
//	)
func (c *Client) Copy(
	ctx context.Context,
	src, dst string,
	opts ...objtypes.CopyOption,
) (*objtypes.CopyResult, error) {
	cfg := &objtypes.CopyOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	srcLoc, dstLoc, err := parsePair(src, dst)
	if err != nil {
		return nil, err
	}
	filter, err := scanner.NewFilter(cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	return c.copy(ctx, srcLoc, dstLoc, filter, cfg)
}

func (c *Client) copy(
	ctx context.Context,
	src, dst location.Location,
	filter *scanner.Filter,
	cfg *objtypes.CopyOptionConfig,
) (*objtypes.CopyResult, error) {
	if cfg.Recursive {
		return c.transfers.CopyTree(ctx, src, dst, filter, cfg.Checksum)
	}

	if !filter.IsEmpty() {
		c.logger.Warn("include and exclude patterns only apply to recursive copies")
	}

	start := time.Now()
	res, err := c.transfers.CopyOne(ctx, src, dst, cfg.Checksum)
	if err != nil {
		return nil, err
	}
	return &objtypes.CopyResult{
		Transfers: []objtypes.TransferResult{*res},
		Bytes:     res.Bytes,
		Duration:  time.Since(start),
	}, nil
}

// Move copies src to dst and then removes the source. Only remote sources
// are removed; a local source is left in place. Recursive moves remove
// exactly the keys the pattern filter admits.
//
// When the copy fails nothing is removed. When removal fails the copy
// result is returned together with the error.
func (c *Client) Move(
	ctx context.Context,
	src, dst string,
	opts ...objtypes.CopyOption,
) (*objtypes.CopyResult, error) {
	cfg := &objtypes.CopyOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	srcLoc, dstLoc, err := parsePair(src, dst)
	if err != nil {
		return nil, err
	}
	filter, err := scanner.NewFilter(cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	res, err := c.copy(ctx, srcLoc, dstLoc, filter, cfg)
	if err != nil {
		return res, err
	}

	if !srcLoc.IsRemote() {
		c.logger.Info("local source kept after move", "source", srcLoc.String())
		return res, nil
	}

	removed, err := c.remover.Remove(ctx, srcLoc, cfg.Recursive, filter)
	if removed != nil {
		res.Removed = removed.Deleted
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

// Remove deletes an object, or with WithRemoveRecursive every key under a
// prefix that passes the patterns. Only s3:// locations can be removed.
func (c *Client) Remove(
	ctx context.Context,
	path string,
	opts ...objtypes.RemoveOption,
) (*objtypes.RemoveResult, error) {
	cfg := &objtypes.RemoveOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	loc, err := parseLocation(path)
	if err != nil {
		return nil, err
	}
	filter, err := scanner.NewFilter(cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	return c.remover.Remove(ctx, loc, cfg.Recursive, filter)
}

// List calls fn for every bucket when path is empty, and otherwise for
// every object under the s3:// prefix. Non-recursive listings also yield
// common prefixes, marked IsPrefix.
func (c *Client) List(
	ctx context.Context,
	path string,
	recursive bool,
	fn func(objtypes.Object) error,
) (*objtypes.ListSummary, error) {
	if path == "" {
		return c.lister.List(ctx, nil, recursive, fn)
	}

	loc, err := parseLocation(path)
	if err != nil {
		return nil, err
	}
	return c.lister.List(ctx, &loc, recursive, fn)
}

// Stat returns metadata for a local path, an object, or a bucket when the
// s3:// URI has no key.
func (c *Client) Stat(
	ctx context.Context,
	path string,
	opts ...objtypes.StatOption,
) (*objtypes.ObjectInfo, error) {
	cfg := objtypes.StatOptionConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	loc, err := parseLocation(path)
	if err != nil {
		return nil, err
	}
	return c.stater.Stat(ctx, loc, cfg)
}

// Cat writes the selected bytes of path to w and returns how many were
// written. Without range options the whole object is written.
//
// Example:
//
//	n, err := client.Cat(ctx, "s3://logs/app.log", os.Stdout, objsync.WithRange("0-1023"))
func (c *Client) Cat(
	ctx context.Context,
	path string,
	w io.Writer,
	opts ...objtypes.RangeOption,
) (int64, error) {
	loc, err := parseLocation(path)
	if err != nil {
		return 0, err
	}
	rng, err := resolveRange(opts)
	if err != nil {
		return 0, err
	}
	return c.catter.Cat(ctx, loc, rng, w)
}

// Cmp compares a and b byte by byte over the selected range. Differences
// are reported in the result, never as an error.
func (c *Client) Cmp(
	ctx context.Context,
	a, b string,
	opts ...objtypes.RangeOption,
) (*objtypes.CmpResult, error) {
	left, right, err := parsePair(a, b)
	if err != nil {
		return nil, err
	}
	rng, err := resolveRange(opts)
	if err != nil {
		return nil, err
	}
	return c.comparer.Compare(ctx, left, right, rng)
}

func resolveRange(opts []objtypes.RangeOption) (rangespec.Range, error) {
	cfg := &objtypes.RangeOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return rangespec.Resolve(cfg.Range, cfg.Offset, cfg.Length)
}

func parseLocation(path string) (location.Location, error) {
	if path == "" {
		return location.Location{}, errors.NewError("parse", errors.ErrInvalidInput).
			WithMessage("path cannot be empty")
	}
	return location.Parse(path)
}

func parsePair(src, dst string) (location.Location, location.Location, error) {
	srcLoc, err := parseLocation(src)
	if err != nil {
		return location.Location{}, location.Location{}, err
	}
	dstLoc, err := parseLocation(dst)
	if err != nil {
		return location.Location{}, location.Location{}, err
	}
	return srcLoc, dstLoc, nil
}
