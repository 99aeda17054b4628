package manager

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/rangespec"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// DefaultMultipartThreshold is the upload size at which multipart kicks in (8MiB).
const DefaultMultipartThreshold = 8 * 1024 * 1024

// Manager copies objects between any two locations.
type Manager struct {
	backends  backend.Set
	scanner   *scanner.Scanner
	uploader  *multipart.Uploader
	threshold int64
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithMultipartThreshold sets the size at or above which local uploads use
// multipart. Non-positive values keep the default.
func WithMultipartThreshold(size int64) Option {
	return func(m *Manager) {
		if size > 0 {
			m.threshold = size
		}
	}
}

// WithUploader sets the multipart uploader.
func WithUploader(u *multipart.Uploader) Option {
	return func(m *Manager) {
		m.uploader = u
	}
}

// WithScanner sets the tree walker used by CopyTree.
func WithScanner(s *scanner.Scanner) Option {
	return func(m *Manager) {
		m.scanner = s
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager over backends.
func NewManager(backends backend.Set, opts ...Option) *Manager {
	m := &Manager{
		backends:  backends,
		threshold: DefaultMultipartThreshold,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.uploader == nil {
		m.uploader = multipart.NewUploader(backends.Remote, multipart.WithLogger(m.logger))
	}
	if m.scanner == nil {
		m.scanner = scanner.NewScanner(backends, scanner.WithLogger(m.logger))
	}
	return m
}

// Threshold returns the multipart threshold.
func (m *Manager) Threshold() int64 {
	return m.threshold
}

// CopyOne copies a single object or file from src to dst. A destination that
// names a directory (a remote key ending in '/', an empty key, a local path
// with a trailing separator or an existing local directory) receives the
// source's base name. Checksum options are validated before any I/O.
func (m *Manager) CopyOne(
	ctx context.Context,
	src, dst location.Location,
	opts objtypes.ChecksumOptions,
) (*objtypes.TransferResult, error) {
	checksum, err := ParseChecksum(opts)
	if err != nil {
		return nil, err
	}
	if src.IsRemote() && src.Key == "" {
		return nil, errors.NewBucketError("copy", src.Bucket, errors.ErrInvalidInput).
			WithMessage("source key is required")
	}

	dst = m.resolveDestination(ctx, src, dst)
	return m.transfer(ctx, src, dst, checksum)
}

// CopyExact copies src to exactly dst with no destination rewriting and no
// checksum options. Tree walks use it for every discovered entry.
func (m *Manager) CopyExact(ctx context.Context, src, dst location.Location) (*objtypes.TransferResult, error) {
	return m.transfer(ctx, src, dst, Checksum{})
}

// resolveDestination appends the source base name when dst names a directory.
func (m *Manager) resolveDestination(ctx context.Context, src, dst location.Location) location.Location {
	base := src.Base()
	if base == "" || base == "." || base == "/" {
		return dst
	}

	if dst.IsDirLike() {
		return dst.Join(base)
	}
	if dst.IsLocal() {
		if info, err := m.backends.Local.Stat(ctx, dst); err == nil && info.IsDir {
			return dst.Join(base)
		}
	}
	return dst
}

// transfer moves one object with no destination rewriting.
func (m *Manager) transfer(
	ctx context.Context,
	src, dst location.Location,
	checksum Checksum,
) (*objtypes.TransferResult, error) {
	start := time.Now()

	var (
		res *objtypes.TransferResult
		err error
	)
	switch pair := location.PairOf(src, dst); pair {
	case location.LocalToRemote:
		res, err = m.upload(ctx, src, dst, checksum)
	case location.RemoteToLocal:
		res, err = m.download(ctx, src, dst, checksum)
	case location.RemoteToRemote:
		res, err = m.serverCopy(ctx, src, dst)
	case location.LocalToLocal:
		res, err = m.localCopy(ctx, src, dst)
	default:
		return nil, errors.NewError("copy", errors.ErrInvalidLocation).
			WithMessage("unsupported direction " + pair.String())
	}
	if err != nil {
		return nil, err
	}

	res.Source = src.String()
	res.Destination = dst.String()
	res.Duration = time.Since(start)

	m.logger.Info("copied",
		"source", res.Source,
		"destination", res.Destination,
		"method", string(res.Method),
		"size", humanize.IBytes(uint64(res.Bytes)))
	return res, nil
}

func (m *Manager) upload(
	ctx context.Context,
	src, dst location.Location,
	checksum Checksum,
) (*objtypes.TransferResult, error) {
	if dst.Key == "" {
		return nil, errors.NewBucketError("upload", dst.Bucket, errors.ErrInvalidInput).
			WithMessage("destination key is required")
	}

	size, err := m.statFile(ctx, src)
	if err != nil {
		return nil, err
	}

	r, err := m.backends.Local.OpenRange(ctx, src, rangespec.Whole, backend.ReadOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	opts := backend.PutOptions{ChecksumAlgorithm: checksum.UploadAlgorithm()}

	if size > 0 && size >= m.threshold {
		m.logger.Debug("using multipart upload",
			"source", src.String(),
			"size", humanize.IBytes(uint64(size)),
			"partSize", humanize.IBytes(uint64(m.uploader.PartSize())))

		result, err := m.uploader.Upload(ctx, dst, r, size, opts)
		if err != nil {
			return nil, err
		}
		return &objtypes.TransferResult{
			Method: objtypes.MethodMultipart,
			Bytes:  result.Bytes,
			Parts:  result.Parts,
		}, nil
	}

	if err := m.backends.Remote.Put(ctx, dst, r, size, opts); err != nil {
		return nil, err
	}
	return &objtypes.TransferResult{Method: objtypes.MethodPut, Bytes: size}, nil
}

func (m *Manager) download(
	ctx context.Context,
	src, dst location.Location,
	checksum Checksum,
) (*objtypes.TransferResult, error) {
	r, err := m.backends.Remote.OpenRange(ctx, src, rangespec.Whole, backend.ReadOptions{
		ValidateChecksum: checksum.Enabled,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	cr := &countingReader{r: r}
	if err := m.backends.Local.Put(ctx, dst, cr, -1, backend.PutOptions{}); err != nil {
		return nil, err
	}
	return &objtypes.TransferResult{Method: objtypes.MethodDownload, Bytes: cr.n}, nil
}

func (m *Manager) serverCopy(ctx context.Context, src, dst location.Location) (*objtypes.TransferResult, error) {
	if dst.Key == "" {
		return nil, errors.NewBucketError("copy", dst.Bucket, errors.ErrInvalidInput).
			WithMessage("destination key is required")
	}

	info, err := m.backends.Remote.Stat(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := m.backends.Remote.ServerSideCopy(ctx, src, dst); err != nil {
		return nil, err
	}
	return &objtypes.TransferResult{Method: objtypes.MethodServerCopy, Bytes: info.Size}, nil
}

func (m *Manager) localCopy(ctx context.Context, src, dst location.Location) (*objtypes.TransferResult, error) {
	if samePath(src.Path, dst.Path) {
		return nil, errors.NewError("copy", errors.ErrInvalidInput).
			WithKey(src.Path).
			WithMessage("source and destination are the same file")
	}

	size, err := m.statFile(ctx, src)
	if err != nil {
		return nil, err
	}

	r, err := m.backends.Local.OpenRange(ctx, src, rangespec.Whole, backend.ReadOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	if err := m.backends.Local.Put(ctx, dst, r, size, backend.PutOptions{}); err != nil {
		return nil, err
	}
	return &objtypes.TransferResult{Method: objtypes.MethodLocalCopy, Bytes: size}, nil
}

// samePath reports whether two local paths resolve to the same absolute path.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// statFile returns the size of a local regular file.
func (m *Manager) statFile(ctx context.Context, src location.Location) (int64, error) {
	info, err := m.backends.Local.Stat(ctx, src)
	if err != nil {
		return 0, err
	}
	if info.IsDir {
		return 0, errors.NewError("copy", errors.ErrInvalidInput).
			WithKey(src.Path).
			WithMessage("source is a directory, use a recursive copy")
	}
	return info.Size, nil
}

// CopyTree copies every entry under src that passes filter to the matching
// relative path under dst, one at a time in discovery order. Entries whose
// relative path would leave a local dst are skipped. The first failure
// stops the batch. Checksum options do not apply to tree copies and
// are ignored with a warning.
func (m *Manager) CopyTree(
	ctx context.Context,
	src, dst location.Location,
	filter *scanner.Filter,
	opts objtypes.ChecksumOptions,
) (*objtypes.CopyResult, error) {
	if location.PairOf(src, dst) == location.LocalToLocal {
		return nil, errors.NewError("copy", errors.ErrNotImplemented).
			WithMessage("recursive local to local copy")
	}
	if !opts.IsZero() {
		m.logger.Warn("checksum options are ignored for recursive operations")
	}

	start := time.Now()
	result := &objtypes.CopyResult{}

	err := m.scanner.Walk(ctx, src, filter, func(item scanner.Item) error {
		target, err := dst.JoinWithin(item.RelPath)
		if err != nil {
			m.logger.Warn("skipping entry outside destination",
				"source", item.Location.String(),
				"error", err)
			return nil
		}
		res, err := m.CopyExact(ctx, item.Location, target)
		if err != nil {
			return err
		}
		result.Transfers = append(result.Transfers, *res)
		result.Bytes += res.Bytes
		return nil
	})
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	m.logger.Info("recursive copy finished",
		"source", src.String(),
		"destination", dst.String(),
		"objects", len(result.Transfers),
		"size", humanize.IBytes(uint64(result.Bytes)))
	return result, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
