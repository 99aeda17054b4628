// Package multipart uploads a stream as an ordered sequence of fixed-size
// parts.
//
// Parts are read and uploaded one at a time: part n is never sent before
// part n-1 has been acknowledged, and the completion request lists parts in
// ascending order. A failed upload is left open on the store unless abort on
// failure is enabled; the caller can then abort it by id.
package multipart

import (
	"context"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// DefaultPartSize is the chunk size used when none is configured (8MiB).
const DefaultPartSize = 8 * 1024 * 1024

// Uploader performs sequential multipart uploads.
type Uploader struct {
	store          backend.ObjectStore
	partSize       int64
	abortOnFailure bool
	progress       objtypes.ProgressTracker
	logger         *slog.Logger
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithPartSize sets the part size. Non-positive values keep the default.
func WithPartSize(size int64) Option {
	return func(u *Uploader) {
		if size > 0 {
			u.partSize = size
		}
	}
}

// WithAbortOnFailure aborts the upload session when any step fails.
// Default is false: the session is left for the caller to inspect or abort.
func WithAbortOnFailure(abort bool) Option {
	return func(u *Uploader) {
		u.abortOnFailure = abort
	}
}

// WithProgress reports cumulative bytes after each acknowledged part.
func WithProgress(tracker objtypes.ProgressTracker) Option {
	return func(u *Uploader) {
		u.progress = tracker
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUploader creates a multipart uploader against store.
func NewUploader(store backend.ObjectStore, opts ...Option) *Uploader {
	u := &Uploader{
		store:    store,
		partSize: DefaultPartSize,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// PartSize returns the configured part size.
func (u *Uploader) PartSize() int64 {
	return u.partSize
}

// Result describes a completed multipart upload.
type Result struct {
	UploadID string
	Parts    int
	Bytes    int64
}

// Upload reads r in parts of exactly PartSize bytes and uploads them to dst.
// size is the expected total and is used only for progress reporting. The
// loop ends on the first read that returns fewer than PartSize bytes.
func (u *Uploader) Upload(
	ctx context.Context,
	dst location.Location,
	r io.Reader,
	size int64,
	opts backend.PutOptions,
) (*Result, error) {
	session, err := u.store.CreateMultipart(ctx, dst, opts)
	if err != nil {
		return nil, err
	}

	u.logger.Debug("started multipart upload",
		"destination", dst.String(),
		"uploadId", session.UploadID,
		"partSize", humanize.IBytes(uint64(u.partSize)))

	uploaded, err := u.uploadParts(ctx, session, r, size)
	if err != nil {
		return nil, u.fail(ctx, session, err)
	}

	if err := u.store.CompleteMultipart(ctx, session); err != nil {
		return nil, u.fail(ctx, session, err)
	}

	if u.progress != nil {
		u.progress.Complete()
	}

	u.logger.Debug("completed multipart upload",
		"destination", dst.String(),
		"parts", len(session.Parts),
		"bytes", humanize.IBytes(uint64(uploaded)))

	return &Result{
		UploadID: session.UploadID,
		Parts:    len(session.Parts),
		Bytes:    uploaded,
	}, nil
}

func (u *Uploader) uploadParts(
	ctx context.Context,
	session *backend.MultipartSession,
	r io.Reader,
	size int64,
) (int64, error) {
	buf := pool.GetBuffer(int(u.partSize))
	defer pool.PutBuffer(buf)

	var uploaded int64
	partNumber := int32(1)

	for {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}

		n, readErr := io.ReadFull(r, buf)
		if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
			return uploaded, errors.NewObjectError("readPart", session.Location.Bucket, session.Location.Key, readErr)
		}
		if n == 0 {
			break
		}

		part, err := u.store.UploadPart(ctx, session, partNumber, buf[:n])
		if err != nil {
			return uploaded, err
		}
		session.AddPart(part)
		uploaded += int64(n)

		u.logger.Debug("uploaded part",
			"uploadId", session.UploadID,
			"part", partNumber,
			"bytes", humanize.IBytes(uint64(uploaded)),
			"total", humanize.IBytes(uint64(size)))
		if u.progress != nil {
			u.progress.Update(uploaded, size)
		}

		if int64(n) < u.partSize {
			break
		}
		partNumber++
	}

	return uploaded, nil
}

// fail reports err and, when configured, aborts the session. The original
// error is always returned.
func (u *Uploader) fail(ctx context.Context, session *backend.MultipartSession, err error) error {
	if u.progress != nil {
		u.progress.Error(err)
	}

	if !u.abortOnFailure {
		u.logger.Warn("multipart upload failed; session left open",
			"destination", session.Location.String(),
			"uploadId", session.UploadID,
			"error", err)
		return err
	}

	if abortErr := u.store.AbortMultipart(ctx, session); abortErr != nil {
		u.logger.Warn("failed to abort multipart upload",
			"uploadId", session.UploadID,
			"error", abortErr)
	}
	return err
}
