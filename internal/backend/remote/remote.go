// Package remote implements the storage backend for S3-compatible object
// stores on top of aws-sdk-go-v2.
package remote

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/rangespec"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// DefaultContentType is used when neither content nor extension identify the object.
const DefaultContentType = "application/octet-stream"

// sniffLen is how much of a body is inspected for content detection.
const sniffLen = 3072

// Backend serves remote locations.
type Backend struct {
	client   s3api.S3API
	pageSize int32
	logger   *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithPageSize sets the ListObjectsV2 page size. Default is 1000.
func WithPageSize(size int32) Option {
	return func(b *Backend) {
		b.pageSize = size
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

// New creates a Backend over client.
func New(client s3api.S3API, opts ...Option) *Backend {
	b := &Backend{
		client:   client,
		pageSize: maxPageSize,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ backend.ObjectStore = (*Backend)(nil)

// Kind implements backend.Backend.
func (b *Backend) Kind() location.Kind {
	return location.KindRemote
}

// Stat implements backend.Backend with HeadObject.
func (b *Backend) Stat(ctx context.Context, loc location.Location) (*objtypes.ObjectInfo, error) {
	if err := requireKey("stat", loc); err != nil {
		return nil, err
	}

	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket:       aws.String(loc.Bucket),
		Key:          aws.String(loc.Key),
		ChecksumMode: types.ChecksumModeEnabled,
	})
	if err != nil {
		return nil, errors.NewObjectError("stat", loc.Bucket, loc.Key,
			convertAWSError(err, errors.ErrObjectNotFound))
	}

	return &objtypes.ObjectInfo{
		Location:     loc.String(),
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		ContentType:  aws.ToString(out.ContentType),
		StorageClass: string(out.StorageClass),
		Metadata:     out.Metadata,
		Checksums:    headChecksums(out),
	}, nil
}

// List implements backend.Backend. Non-recursive listings use the "/"
// delimiter and yield each page's common prefixes before its objects.
func (b *Backend) List(
	ctx context.Context,
	loc location.Location,
	recursive bool,
	fn func(backend.Entry) error,
) error {
	if err := requireBucket("list", loc); err != nil {
		return err
	}

	delimiter := ""
	if !recursive {
		delimiter = "/"
	}

	p := newPaginator(b.client, loc.Bucket, loc.Key, delimiter, b.pageSize)
	pages := 0
	for p.HasMorePages() {
		pg, err := p.NextPage(ctx)
		if err != nil {
			return errors.NewObjectError("list", loc.Bucket, loc.Key,
				convertAWSError(err, errors.ErrBucketNotFound))
		}
		pages++

		for _, e := range pg.Prefixes {
			if err := fn(e); err != nil {
				return err
			}
		}
		for _, e := range pg.Objects {
			if err := fn(e); err != nil {
				return err
			}
		}
	}

	b.logger.Debug("listed objects", "bucket", loc.Bucket, "prefix", loc.Key, "pages", pages)
	return nil
}

// OpenRange implements backend.Backend with a ranged GetObject.
func (b *Backend) OpenRange(
	ctx context.Context,
	loc location.Location,
	rng rangespec.Range,
	opts backend.ReadOptions,
) (io.ReadCloser, error) {
	if err := requireKey("get", loc); err != nil {
		return nil, err
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	}
	if h := rng.Header(); h != "" {
		input.Range = aws.String(h)
	}
	if opts.ValidateChecksum {
		input.ChecksumMode = types.ChecksumModeEnabled
	}

	out, err := b.client.GetObject(ctx, input)
	if err != nil {
		return nil, errors.NewObjectError("get", loc.Bucket, loc.Key,
			convertAWSError(err, errors.ErrObjectNotFound))
	}
	if out.Body == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return out.Body, nil
}

// Put implements backend.Backend with a single PutObject. Seekable readers
// are streamed; anything else is buffered so the request can be signed.
func (b *Backend) Put(
	ctx context.Context,
	loc location.Location,
	r io.Reader,
	size int64,
	opts backend.PutOptions,
) error {
	if err := requireKey("put", loc); err != nil {
		return err
	}

	body, head, err := prepareBody(r)
	if err != nil {
		return errors.NewObjectError("put", loc.Bucket, loc.Key, err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = detectContentType(loc.Key, head)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(loc.Bucket),
		Key:           aws.String(loc.Key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}
	if opts.ChecksumAlgorithm != "" {
		input.ChecksumAlgorithm = checksumAlgorithm(opts.ChecksumAlgorithm)
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return errors.NewObjectError("put", loc.Bucket, loc.Key,
			convertAWSError(err, errors.ErrBucketNotFound))
	}
	return nil
}

// Digest implements backend.Backend with the object's ETag.
func (b *Backend) Digest(ctx context.Context, loc location.Location) (string, error) {
	info, err := b.Stat(ctx, loc)
	if err != nil {
		return "", err
	}
	return DigestFromETag(info.ETag), nil
}

// Delete implements backend.Backend.
func (b *Backend) Delete(ctx context.Context, loc location.Location) error {
	if err := requireKey("delete", loc); err != nil {
		return err
	}

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return errors.NewObjectError("delete", loc.Bucket, loc.Key,
			convertAWSError(err, errors.ErrObjectNotFound))
	}
	return nil
}

// ServerSideCopy implements backend.ObjectStore with CopyObject.
func (b *Backend) ServerSideCopy(ctx context.Context, src, dst location.Location) error {
	if err := requireKey("copy", src); err != nil {
		return err
	}
	if err := requireKey("copy", dst); err != nil {
		return err
	}

	source := (&url.URL{Path: src.Bucket + "/" + src.Key}).EscapedPath()
	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dst.Bucket),
		Key:        aws.String(dst.Key),
		CopySource: aws.String(source),
	})
	if err != nil {
		return errors.NewObjectError("copy", src.Bucket, src.Key,
			convertAWSError(err, errors.ErrObjectNotFound)).
			WithMessage("to " + dst.String())
	}
	return nil
}

// ListBuckets implements backend.ObjectStore.
func (b *Backend) ListBuckets(ctx context.Context) ([]objtypes.Bucket, error) {
	var buckets []objtypes.Bucket
	input := &s3.ListBucketsInput{}

	for {
		out, err := b.client.ListBuckets(ctx, input)
		if err != nil {
			return nil, errors.NewError("listBuckets", convertAWSError(err, errors.ErrBucketNotFound))
		}
		for _, bkt := range out.Buckets {
			buckets = append(buckets, objtypes.Bucket{
				Name:         aws.ToString(bkt.Name),
				CreationDate: aws.ToTime(bkt.CreationDate),
			})
		}
		if aws.ToString(out.ContinuationToken) == "" {
			break
		}
		input.ContinuationToken = out.ContinuationToken
	}

	return buckets, nil
}

// StatBucket implements backend.ObjectStore with HeadBucket.
func (b *Backend) StatBucket(ctx context.Context, bucket string) (*objtypes.BucketInfo, error) {
	out, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return nil, errors.NewBucketError("statBucket", bucket, convertAWSError(err, errors.ErrBucketNotFound))
	}
	return &objtypes.BucketInfo{
		Name:   bucket,
		Region: aws.ToString(out.BucketRegion),
	}, nil
}

func requireBucket(op string, loc location.Location) error {
	if loc.Kind != location.KindRemote || loc.Bucket == "" {
		return errors.NewError(op, errors.ErrInvalidInput).WithMessage("not a remote location: " + loc.String())
	}
	return nil
}

func requireKey(op string, loc location.Location) error {
	if err := requireBucket(op, loc); err != nil {
		return err
	}
	if loc.Key == "" {
		return errors.NewBucketError(op, loc.Bucket, errors.ErrInvalidInput).WithMessage("object key required")
	}
	return nil
}

// prepareBody returns a seekable body and its leading bytes for sniffing.
func prepareBody(r io.Reader) (io.ReadSeeker, []byte, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, nil, err
		}
		head := data
		if len(head) > sniffLen {
			head = head[:sniffLen]
		}
		return bytes.NewReader(data), head, nil
	}

	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, nil, err
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rs, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, nil, err
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return nil, nil, err
	}
	return rs, head[:n], nil
}

// detectContentType sniffs head with mimetype and falls back to the key's
// extension.
func detectContentType(key string, head []byte) string {
	if len(head) > 0 {
		if mt := mimetype.Detect(head); mt != nil && !mt.Is("application/octet-stream") {
			return mt.String()
		}
	}
	if ext := strings.ToLower(path.Ext(key)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
