// Package cmp compares two files or objects byte by byte, optionally over a
// byte range, and reports the first difference the way cmp(1) does.
package cmp

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/rangespec"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Comparer reads two sources in lock-step chunks.
type Comparer struct {
	backends  backend.Set
	chunkSize int
	logger    *slog.Logger
}

// Option configures a Comparer.
type Option func(*Comparer)

// WithChunkSize sets the lock-step read size. Non-positive values keep the
// default of 64KiB.
func WithChunkSize(size int) Option {
	return func(c *Comparer) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Comparer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Comparer over backends.
func New(backends backend.Set, opts ...Option) *Comparer {
	c := &Comparer{
		backends:  backends,
		chunkSize: pool.CompareChunkSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare reads left and right over rng and stops at the first differing
// byte. Byte offsets are 1-based and absolute; the line is 1 plus the number
// of newlines in left before that byte. When one side ends first the result
// names it in EOF. Without a length limit the whole sizes are compared too,
// so identical prefixes of different-sized sources still differ.
func (c *Comparer) Compare(
	ctx context.Context,
	left, right location.Location,
	rng rangespec.Range,
) (*objtypes.CmpResult, error) {
	leftSize, err := c.size(ctx, left)
	if err != nil {
		return nil, err
	}
	rightSize, err := c.size(ctx, right)
	if err != nil {
		return nil, err
	}

	lr, err := c.backends.For(left).OpenRange(ctx, left, rng, backend.ReadOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = lr.Close() }()

	rr, err := c.backends.For(right).OpenRange(ctx, right, rng, backend.ReadOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = rr.Close() }()

	lbuf := pool.GetBuffer(c.chunkSize)
	defer pool.PutBuffer(lbuf)
	rbuf := pool.GetBuffer(c.chunkSize)
	defer pool.PutBuffer(rbuf)

	remaining := int64(-1)
	if rng.Length != nil {
		remaining = *rng.Length
	}
	pos := rng.Offset()
	line := int64(1)
	var compared int64

	for remaining != 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		toRead := len(lbuf)
		if remaining > 0 && remaining < int64(toRead) {
			toRead = int(remaining)
		}

		n1, err := fill(lr, lbuf[:toRead])
		if err != nil {
			return nil, errors.NewError("cmp", err).WithKey(left.String())
		}
		n2, err := fill(rr, rbuf[:toRead])
		if err != nil {
			return nil, errors.NewError("cmp", err).WithKey(right.String())
		}

		n := min(n1, n2)
		if i := firstDifference(lbuf[:n], rbuf[:n]); i >= 0 {
			line += int64(bytes.Count(lbuf[:i], []byte{'\n'}))
			return &objtypes.CmpResult{
				Differ:   true,
				Byte:     pos + int64(i) + 1,
				Line:     line,
				Compared: compared + int64(i),
			}, nil
		}

		line += int64(bytes.Count(lbuf[:n], []byte{'\n'}))
		pos += int64(n)
		compared += int64(n)

		if n1 != n2 {
			return eofOn(left, right, n1 < n2, compared), nil
		}
		if n1 == 0 {
			break
		}
		if remaining > 0 {
			remaining -= int64(n)
		}
	}

	if rng.Length == nil && leftSize != rightSize {
		return eofOn(left, right, leftSize < rightSize, compared), nil
	}

	c.logger.Debug("sources are identical",
		"left", left.String(),
		"right", right.String(),
		"range", rng.String(),
		"bytes", compared)
	return &objtypes.CmpResult{Compared: compared}, nil
}

// size returns the total size of a file or object, rejecting buckets and
// directories.
func (c *Comparer) size(ctx context.Context, loc location.Location) (int64, error) {
	if loc.IsRemote() && loc.Key == "" {
		return 0, errors.NewBucketError("cmp", loc.Bucket, errors.ErrInvalidInput).
			WithMessage("is a bucket, not an object")
	}

	info, err := c.backends.For(loc).Stat(ctx, loc)
	if err != nil {
		return 0, err
	}
	if info.IsDir {
		return 0, errors.NewError("cmp", errors.ErrInvalidInput).
			WithKey(loc.String()).
			WithMessage("not a file")
	}
	return info.Size, nil
}

func eofOn(left, right location.Location, leftShorter bool, compared int64) *objtypes.CmpResult {
	side := right
	if leftShorter {
		side = left
	}
	return &objtypes.CmpResult{Differ: true, EOF: side.String(), Compared: compared}
}

// fill reads until buf is full or the reader is exhausted.
func fill(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, nil
	}
	return n, err
}

func firstDifference(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
