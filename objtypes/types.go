// Package objtypes provides shared type definitions for the objsync module.
package objtypes

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	forgefs "github.com/input-output-hk/catalyst-forge-libs/fs"
)

// Object represents one listing result: an object, a local file, or a
// common prefix when listing non-recursively.
type Object struct {
	// Key is the object key or local path
	Key string

	// Size is the object size in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the S3 entity tag for the object, without quotes
	ETag string

	// StorageClass is the S3 storage class
	StorageClass string

	// IsPrefix marks a common prefix (remote) or directory (local)
	IsPrefix bool
}

// Bucket is a remote container as returned by ListBuckets.
type Bucket struct {
	Name         string
	CreationDate time.Time
}

// BucketInfo describes a bucket that was confirmed to exist.
type BucketInfo struct {
	Name   string
	Region string
}

// ObjectInfo contains detailed metadata about a single object or file.
type ObjectInfo struct {
	// Location is the rendered location (s3://bucket/key or a local path)
	Location string

	// Size is the content length in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the S3 entity tag, or the MD5 hex digest for local files when requested
	ETag string

	// ContentType is the MIME type of the object
	ContentType string

	// StorageClass is the S3 storage class (remote only)
	StorageClass string

	// Metadata contains user-defined metadata (remote only)
	Metadata map[string]string

	// Checksums maps an algorithm name (CRC32, SHA256, ...) to its value
	Checksums map[string]string

	// Mode is the file mode (local only)
	Mode fs.FileMode

	// IsDir reports whether the local path is a directory
	IsDir bool

	// IsBucket marks a remote container rather than an object
	IsBucket bool

	// Region is the bucket region, when IsBucket is set
	Region string
}

// FileType describes the kind of a local entry.
func (o *ObjectInfo) FileType() string {
	switch {
	case o.IsBucket:
		return "bucket"
	case o.IsDir:
		return "directory"
	case o.Mode&fs.ModeSymlink != 0:
		return "symlink"
	case o.Mode.IsRegular():
		return "regular file"
	default:
		return "object"
	}
}

// ObjectMetadata is the per-key record collected for diffing and syncing.
type ObjectMetadata struct {
	// RelativeKey is the path relative to the walked root, '/'-separated
	RelativeKey string

	// Size is the object size in bytes
	Size int64

	// Digest is a content fingerprint, empty when not computed or not available
	Digest string
}

// DifferenceKind classifies a single diff finding.
type DifferenceKind string

// Difference categories, in report order.
const (
	OnlyInSource   DifferenceKind = "only_in_source"
	OnlyInDest     DifferenceKind = "only_in_dest"
	SizeDiffers    DifferenceKind = "size_differs"
	ContentDiffers DifferenceKind = "content_differs"
)

// Difference is one key that differs between two trees.
type Difference struct {
	Key          string
	Kind         DifferenceKind
	SourceSize   int64
	DestSize     int64
	SourceDigest string
	DestDigest   string
}

// DiffSummary holds per-category counts derived from a difference list.
type DiffSummary struct {
	OnlyInSource   int
	OnlyInDest     int
	SizeDiffers    int
	ContentDiffers int
	Total          int
}

// DiffResult contains the result of a diff operation.
type DiffResult struct {
	// Differences is sorted by key
	Differences []Difference

	// Summary is derived from Differences
	Summary DiffSummary

	// SourceCount and DestCount are the number of keys collected on each side
	SourceCount int
	DestCount   int
}

// ProgressTracker defines the interface for tracking transfer progress.
// Implementations can provide real-time progress updates during uploads and downloads.
type ProgressTracker interface {
	// Update is called after each chunk or part with transfer progress
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// ChecksumOptions request integrity checks from the object store.
type ChecksumOptions struct {
	// Mode must be "ENABLED" when set
	Mode string

	// Algorithm is one of CRC32, CRC32C, SHA1 or SHA256
	Algorithm string
}

// IsZero reports whether no checksum option was given.
func (c ChecksumOptions) IsZero() bool {
	return c.Mode == "" && c.Algorithm == ""
}

// TransferMethod records how a single object was moved.
type TransferMethod string

// Transfer methods.
const (
	MethodPut        TransferMethod = "put"
	MethodMultipart  TransferMethod = "multipart"
	MethodDownload   TransferMethod = "download"
	MethodServerCopy TransferMethod = "server-copy"
	MethodLocalCopy  TransferMethod = "local-copy"
)

// TransferResult contains the result of copying one object.
type TransferResult struct {
	Source      string
	Destination string
	Method      TransferMethod
	Bytes       int64
	Parts       int
	Duration    time.Duration
}

// CopyResult contains the result of a copy or move operation.
type CopyResult struct {
	// Transfers lists every object copied, in discovery order
	Transfers []TransferResult

	// Bytes is the total number of bytes copied
	Bytes int64

	// Removed is the number of source objects removed by a move
	Removed int

	// Duration is how long the operation took
	Duration time.Duration
}

// SyncOperationType is the planned action for one source entry.
type SyncOperationType string

// Sync operation types.
const (
	SyncTransfer SyncOperationType = "transfer"
	SyncSkip     SyncOperationType = "skip"
)

// SyncOperation is one planned (or executed) sync action.
type SyncOperation struct {
	Type        SyncOperationType
	RelativeKey string
	Source      string
	Destination string
	Size        int64
	Reason      string
}

// SyncResult contains the result of a sync operation.
type SyncResult struct {
	// FilesTransferred is the number of objects copied
	FilesTransferred int

	// FilesSkipped is the number of objects whose destination size already matched
	FilesSkipped int

	// BytesTransferred is the total bytes copied
	BytesTransferred int64

	// Operations lists every planned action in discovery order
	Operations []SyncOperation

	// DryRun reports whether transfers were only planned
	DryRun bool

	// Duration is how long the sync operation took
	Duration time.Duration
}

// CmpResult contains the outcome of a byte comparison.
type CmpResult struct {
	// Differ is false when both sides are identical over the compared range
	Differ bool

	// Byte is the 1-based absolute offset of the first differing byte
	Byte int64

	// Line is the 1-based line of the first differing byte in the left source
	Line int64

	// EOF names the side that ended first, empty when the bytes differ or match
	EOF string

	// Compared is the number of identical bytes seen before stopping
	Compared int64
}

// RemoveResult contains the result of a remove operation.
type RemoveResult struct {
	Deleted int
	Keys    []string
}

// ListSummary totals a list operation.
type ListSummary struct {
	Buckets  int
	Objects  int
	Prefixes int
	Bytes    int64
}

// Configuration types for functional options

// ClientConfig holds configuration for the objsync client.
type ClientConfig struct {
	Region             string
	Endpoint           string
	Profile            string
	MaxRetries         int
	Timeout            time.Duration
	ForcePathStyle     bool
	InsecureSkipVerify bool
	CustomAWSConfig    *aws.Config
	CustomHTTPClient   *http.Client
	Filesystem         forgefs.Filesystem
	Logger             *slog.Logger
	MultipartThreshold int64
	MultipartChunkSize int64
	AbortOnFailure     bool
	Progress           ProgressTracker
	DigestCachePath    string
}

// CopyOptionConfig holds configuration for copy and move operations.
type CopyOptionConfig struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
	Checksum        ChecksumOptions
}

// SyncOptionConfig holds configuration for sync operations.
type SyncOptionConfig struct {
	DryRun          bool
	IncludePatterns []string
	ExcludePatterns []string
}

// DiffOptionConfig holds configuration for diff operations.
type DiffOptionConfig struct {
	CompareContent  bool
	IncludePatterns []string
	ExcludePatterns []string
}

// RangeOptionConfig holds the byte range inputs for cat and cmp.
type RangeOptionConfig struct {
	Range  string
	Offset *int64
	Length *int64
}

// RemoveOptionConfig holds configuration for remove operations.
type RemoveOptionConfig struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// StatOptionConfig holds configuration for stat operations.
type StatOptionConfig struct {
	// ChecksumAlgorithm requests a local checksum (CRC32, CRC32C, SHA1, SHA256)
	// or asks the object store to return its stored checksums.
	ChecksumAlgorithm string
}

// Option is a functional option for configuring the client.
type (
	Option func(*ClientConfig)
	// CopyOption is a functional option for configuring copy and move operations.
	CopyOption func(*CopyOptionConfig)
	// SyncOption is a functional option for configuring sync operations.
	SyncOption func(*SyncOptionConfig)
	// DiffOption is a functional option for configuring diff operations.
	DiffOption func(*DiffOptionConfig)
	// RangeOption is a functional option selecting a byte range for cat and cmp.
	RangeOption func(*RangeOptionConfig)
	// RemoveOption is a functional option for configuring remove operations.
	RemoveOption func(*RemoveOptionConfig)
	// StatOption is a functional option for configuring stat operations.
	StatOption func(*StatOptionConfig)
)
