// Package backend defines the storage capability shared by the local
// filesystem and the remote object store.
//
// Exactly two implementations exist: backend/local and backend/remote.
// Engines choose between them by location kind, never by inspecting the
// concrete type.
package backend

import (
	"context"
	"io"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/rangespec"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Entry is one result of a List call.
type Entry struct {
	// Key is the absolute local path or the full object key
	Key string

	// Size is the content length in bytes
	Size int64

	// Digest is a content fingerprint when the listing carries one for free
	Digest string

	// ModTime is the last modification time
	ModTime time.Time

	// StorageClass is the S3 storage class (remote only)
	StorageClass string

	// IsPrefix marks a common prefix or directory in non-recursive listings
	IsPrefix bool
}

// ReadOptions tune OpenRange.
type ReadOptions struct {
	// ValidateChecksum asks the object store to verify stored checksums
	ValidateChecksum bool
}

// PutOptions tune Put and CreateMultipart.
type PutOptions struct {
	// ContentType overrides content sniffing
	ContentType string

	// ChecksumAlgorithm asks the object store to compute and store a checksum
	ChecksumAlgorithm string
}

// CompletedPart pairs a part number with the tag returned for it.
type CompletedPart struct {
	Number int32
	ETag   string

	// Checksum is the part checksum when the session requested one
	Checksum string
}

// Backend is the capability every storage location offers.
type Backend interface {
	// Kind reports which location kind this backend serves.
	Kind() location.Kind

	// Stat returns metadata for one object or file. A missing target yields
	// errors.ErrObjectNotFound.
	Stat(ctx context.Context, loc location.Location) (*objtypes.ObjectInfo, error)

	// List enumerates entries under loc, calling fn for each in discovery
	// order. Pagination is exhausted internally. Returning an error from fn
	// stops the listing and is returned unchanged.
	List(ctx context.Context, loc location.Location, recursive bool, fn func(Entry) error) error

	// OpenRange returns a reader over the requested byte range.
	OpenRange(
		ctx context.Context,
		loc location.Location,
		rng rangespec.Range,
		opts ReadOptions,
	) (io.ReadCloser, error)

	// Put writes size bytes from r to loc in one request.
	Put(ctx context.Context, loc location.Location, r io.Reader, size int64, opts PutOptions) error

	// Digest returns a content fingerprint, or "" when none is available.
	Digest(ctx context.Context, loc location.Location) (string, error)

	// Delete removes one object or file.
	Delete(ctx context.Context, loc location.Location) error
}

// MultipartSession tracks an open multipart upload. It is owned by a single
// upload call and never persisted.
type MultipartSession struct {
	Location          location.Location
	UploadID          string
	ChecksumAlgorithm string

	// Parts holds completed parts in ascending part-number order
	Parts []CompletedPart
}

// AddPart records a completed part.
func (s *MultipartSession) AddPart(part CompletedPart) {
	s.Parts = append(s.Parts, part)
}

// ObjectStore is the remote backend: a Backend with multipart uploads,
// server-side copy and bucket discovery.
type ObjectStore interface {
	Backend

	// CreateMultipart starts a multipart upload.
	CreateMultipart(ctx context.Context, loc location.Location, opts PutOptions) (*MultipartSession, error)

	// UploadPart uploads one part of session.
	UploadPart(ctx context.Context, session *MultipartSession, number int32, body []byte) (CompletedPart, error)

	// CompleteMultipart assembles session.Parts, which must be in ascending
	// part-number order.
	CompleteMultipart(ctx context.Context, session *MultipartSession) error

	// AbortMultipart discards the upload and its parts.
	AbortMultipart(ctx context.Context, session *MultipartSession) error

	// ServerSideCopy copies src to dst inside the store.
	ServerSideCopy(ctx context.Context, src, dst location.Location) error

	// ListBuckets lists the buckets visible to the caller.
	ListBuckets(ctx context.Context) ([]objtypes.Bucket, error)

	// StatBucket confirms a bucket exists. A missing bucket yields
	// errors.ErrBucketNotFound.
	StatBucket(ctx context.Context, bucket string) (*objtypes.BucketInfo, error)
}

// Set holds the two backends an engine dispatches between.
type Set struct {
	Local  Backend
	Remote ObjectStore
}

// For returns the backend serving loc's kind.
func (s Set) For(loc location.Location) Backend {
	switch loc.Kind {
	case location.KindRemote:
		return s.Remote
	default:
		return s.Local
	}
}
