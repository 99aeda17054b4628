// Package local implements the storage backend for the local filesystem on
// top of the fs.Filesystem abstraction, so tests can swap in an in-memory
// filesystem.
package local

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	billyfs "github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/rangespec"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// DigestStore remembers digests across runs. *cache.DigestCache satisfies it.
type DigestStore interface {
	Get(path string, size int64, modTime time.Time) (string, bool)
	Put(path string, size int64, modTime time.Time, digest string) error
	Delete(path string) error
}

// Backend serves local locations.
type Backend struct {
	fs     fs.Filesystem
	cache  DigestStore
	logger *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithDigestCache enables persisted digests.
func WithDigestCache(store DigestStore) Option {
	return func(b *Backend) {
		b.cache = store
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Backend over fsys. Paths are resolved to absolute paths
// before they reach fsys, so fsys should be rooted at "/".
func New(fsys fs.Filesystem, opts ...Option) *Backend {
	b := &Backend{
		fs:     fsys,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewOS creates a Backend over the OS filesystem.
func NewOS(opts ...Option) *Backend {
	return New(billyfs.NewOSFS("/"), opts...)
}

var _ backend.Backend = (*Backend)(nil)

// Kind implements backend.Backend.
func (b *Backend) Kind() location.Kind {
	return location.KindLocal
}

// Stat implements backend.Backend.
func (b *Backend) Stat(_ context.Context, loc location.Location) (*objtypes.ObjectInfo, error) {
	path, err := b.resolve(loc)
	if err != nil {
		return nil, err
	}

	info, err := b.fs.Stat(path)
	if err != nil {
		return nil, wrapErr("stat", path, err)
	}

	obj := &objtypes.ObjectInfo{
		Location:     path,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		Mode:         info.Mode(),
		IsDir:        info.IsDir(),
	}
	if info.IsDir() {
		obj.Size = 0
		return obj, nil
	}

	obj.ContentType = b.sniff(path)
	return obj, nil
}

// List implements backend.Backend. Recursive listings walk depth-first in
// lexical order and yield regular files only.
func (b *Backend) List(
	ctx context.Context,
	loc location.Location,
	recursive bool,
	fn func(backend.Entry) error,
) error {
	root, err := b.resolve(loc)
	if err != nil {
		return err
	}

	if !recursive {
		return b.listDir(ctx, root, fn)
	}

	// Errors raised inside the callback are kept so they surface unwrapped.
	var walkErr error
	err = b.fs.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			walkErr = wrapErr("walk", path, err)
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			walkErr = err
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		walkErr = fn(backend.Entry{
			Key:     path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return walkErr
	})
	if walkErr != nil {
		return walkErr
	}
	if err != nil {
		return wrapErr("walk", root, err)
	}
	return nil
}

func (b *Backend) listDir(ctx context.Context, root string, fn func(backend.Entry) error) error {
	info, err := b.fs.Stat(root)
	if err != nil {
		return wrapErr("list", root, err)
	}
	if !info.IsDir() {
		return fn(backend.Entry{Key: root, Size: info.Size(), ModTime: info.ModTime()})
	}

	entries, err := b.fs.ReadDir(root)
	if err != nil {
		return wrapErr("list", root, err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := backend.Entry{
			Key:     filepath.Join(root, e.Name()),
			Size:    e.Size(),
			ModTime: e.ModTime(),
		}
		if e.IsDir() {
			entry.Key += string(filepath.Separator)
			entry.Size = 0
			entry.IsPrefix = true
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

// OpenRange implements backend.Backend.
func (b *Backend) OpenRange(
	_ context.Context,
	loc location.Location,
	rng rangespec.Range,
	_ backend.ReadOptions,
) (io.ReadCloser, error) {
	path, err := b.resolve(loc)
	if err != nil {
		return nil, err
	}

	f, err := b.fs.Open(path)
	if err != nil {
		return nil, wrapErr("open", path, err)
	}

	if off := rng.Offset(); off > 0 {
		if _, err := f.Seek(off, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, wrapErr("seek", path, err)
		}
	}

	if rng.Length == nil {
		return f, nil
	}
	return &limitedFile{Reader: io.LimitReader(f, *rng.Length), file: f}, nil
}

// Put implements backend.Backend. Missing parent directories are created and
// any cached digest for the path is dropped.
func (b *Backend) Put(
	_ context.Context,
	loc location.Location,
	r io.Reader,
	_ int64,
	_ backend.PutOptions,
) error {
	path, err := b.resolve(loc)
	if err != nil {
		return err
	}

	if err := b.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapErr("mkdirall", path, err)
	}

	f, err := b.fs.Create(path)
	if err != nil {
		return wrapErr("create", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return wrapErr("write", path, err)
	}
	if err := f.Close(); err != nil {
		return wrapErr("close", path, err)
	}

	b.forgetDigest(path)
	return nil
}

// Digest implements backend.Backend with the hex MD5 of the file content,
// which is what the object store reports as ETag for single-part uploads.
func (b *Backend) Digest(_ context.Context, loc location.Location) (string, error) {
	path, err := b.resolve(loc)
	if err != nil {
		return "", err
	}

	info, err := b.fs.Stat(path)
	if err != nil {
		return "", wrapErr("digest", path, err)
	}

	if b.cache != nil {
		if digest, ok := b.cache.Get(path, info.Size(), info.ModTime()); ok {
			return digest, nil
		}
	}

	f, err := b.fs.Open(path)
	if err != nil {
		return "", wrapErr("digest", path, err)
	}
	defer func() { _ = f.Close() }()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", wrapErr("digest", path, err)
	}
	digest := hex.EncodeToString(h.Sum(nil))

	if b.cache != nil {
		if err := b.cache.Put(path, info.Size(), info.ModTime(), digest); err != nil {
			b.logger.Warn("failed to cache digest", "path", path, "error", err)
		}
	}
	return digest, nil
}

// Delete implements backend.Backend. A cached digest for the path is
// dropped along with the file.
func (b *Backend) Delete(_ context.Context, loc location.Location) error {
	path, err := b.resolve(loc)
	if err != nil {
		return err
	}
	if err := b.fs.Remove(path); err != nil {
		return wrapErr("remove", path, err)
	}

	b.forgetDigest(path)
	return nil
}

// forgetDigest drops the cached digest for path.
func (b *Backend) forgetDigest(path string) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Delete(path); err != nil {
		b.logger.Warn("failed to drop cached digest", "path", path, "error", err)
	}
}

// IsDir reports whether loc is an existing directory.
func (b *Backend) IsDir(loc location.Location) bool {
	path, err := b.resolve(loc)
	if err != nil {
		return false
	}
	info, err := b.fs.Stat(path)
	return err == nil && info.IsDir()
}

// Filesystem returns the underlying filesystem.
//
//nolint:ireturn // exposes the adapter target for callers that need raw access.
func (b *Backend) Filesystem() fs.Filesystem {
	return b.fs
}

func (b *Backend) resolve(loc location.Location) (string, error) {
	if loc.Kind != location.KindLocal {
		return "", errors.NewError("local", errors.ErrInvalidInput).
			WithMessage("not a local location: " + loc.String())
	}
	if loc.Path == "" {
		return "", errors.NewError("local", errors.ErrInvalidInput).WithMessage("empty path")
	}
	path, err := filepath.Abs(loc.Path)
	if err != nil {
		return "", errors.NewError("local", err).WithKey(loc.Path)
	}
	return path, nil
}

func (b *Backend) sniff(path string) string {
	f, err := b.fs.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return ""
	}
	return mt.String()
}

func wrapErr(op, path string, err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return errors.NewError(op, fmt.Errorf("%w: %v", errors.ErrObjectNotFound, err)).WithKey(path)
	}
	if errors.Is(err, iofs.ErrPermission) {
		return errors.NewError(op, fmt.Errorf("%w: %v", errors.ErrAccessDenied, err)).WithKey(path)
	}
	return errors.NewError(op, err).WithKey(path)
}

type limitedFile struct {
	io.Reader
	file fs.File
}

func (l *limitedFile) Close() error {
	return l.file.Close()
}
