package objsync

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// WithRegion sets the AWS region. If not specified, uses the region from
// the credential chain, falling back to us-east-1.
func WithRegion(region string) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.Region = region
	}
}

// WithProfile selects a named profile from the shared AWS config files.
func WithProfile(profile string) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.Profile = profile
	}
}

// WithEndpoint sets a custom S3 endpoint URL for S3-compatible services or
// local testing. A custom endpoint always uses path-style addressing.
func WithEndpoint(endpoint string) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithMaxRetries sets the maximum number of attempts the AWS SDK retryer
// makes per request. Default is 3.
func WithMaxRetries(maxRetries int) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the HTTP client timeout for individual requests.
// Default is no timeout.
func WithTimeout(timeout time.Duration) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
func WithForcePathStyle(forcePathStyle bool) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Only use this against local or self-signed test endpoints.
func WithInsecureSkipVerify(skip bool) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.InsecureSkipVerify = skip
	}
}

// WithAWSConfig provides a fully loaded AWS configuration, bypassing
// LoadDefaultConfig.
func WithAWSConfig(config *aws.Config) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithCustomHTTPClient provides the HTTP client used for every request.
// It takes precedence over WithTimeout and WithInsecureSkipVerify.
func WithCustomHTTPClient(client *http.Client) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithFilesystem sets the filesystem backing local paths. Paths are made
// absolute before use, so the filesystem should be rooted at "/".
// Defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the structured logger. Defaults to discarding output.
func WithLogger(logger *slog.Logger) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithMultipartThreshold sets the size at or above which uploads use
// multipart. Default is 8MiB.
func WithMultipartThreshold(size int64) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		if size > 0 {
			c.MultipartThreshold = size
		}
	}
}

// WithMultipartChunkSize sets the multipart part size. Default is 8MiB.
func WithMultipartChunkSize(size int64) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		if size > 0 {
			c.MultipartChunkSize = size
		}
	}
}

// WithAbortOnFailure aborts a failed multipart upload instead of leaving
// the session open. Default is false.
func WithAbortOnFailure(abort bool) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.AbortOnFailure = abort
	}
}

// WithProgress sets a tracker for multipart uploads and cat output.
func WithProgress(tracker objtypes.ProgressTracker) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.Progress = tracker
	}
}

// WithDigestCache persists local content digests in a bbolt database at
// path, so repeated content diffs skip unchanged files.
func WithDigestCache(path string) objtypes.Option {
	return func(c *objtypes.ClientConfig) {
		c.DigestCachePath = path
	}
}

// WithRecursive copies or moves every entry under the source.
func WithRecursive(recursive bool) objtypes.CopyOption {
	return func(c *objtypes.CopyOptionConfig) {
		c.Recursive = recursive
	}
}

// WithCopyInclude adds include patterns for recursive copies and moves.
func WithCopyInclude(patterns ...string) objtypes.CopyOption {
	return func(c *objtypes.CopyOptionConfig) {
		c.IncludePatterns = append(c.IncludePatterns, patterns...)
	}
}

// WithCopyExclude adds exclude patterns for recursive copies and moves.
func WithCopyExclude(patterns ...string) objtypes.CopyOption {
	return func(c *objtypes.CopyOptionConfig) {
		c.ExcludePatterns = append(c.ExcludePatterns, patterns...)
	}
}

// WithChecksum requests object store checksums on a single-object copy.
// mode must be ENABLED; algorithm is CRC32, CRC32C, SHA1 or SHA256 and may
// be empty to use CRC32.
func WithChecksum(mode, algorithm string) objtypes.CopyOption {
	return func(c *objtypes.CopyOptionConfig) {
		c.Checksum = objtypes.ChecksumOptions{Mode: mode, Algorithm: algorithm}
	}
}

// WithSyncDryRun plans the sync without transferring anything.
func WithSyncDryRun(dryRun bool) objtypes.SyncOption {
	return func(c *objtypes.SyncOptionConfig) {
		c.DryRun = dryRun
	}
}

// WithSyncInclude adds include patterns for sync.
func WithSyncInclude(patterns ...string) objtypes.SyncOption {
	return func(c *objtypes.SyncOptionConfig) {
		c.IncludePatterns = append(c.IncludePatterns, patterns...)
	}
}

// WithSyncExclude adds exclude patterns for sync.
func WithSyncExclude(patterns ...string) objtypes.SyncOption {
	return func(c *objtypes.SyncOptionConfig) {
		c.ExcludePatterns = append(c.ExcludePatterns, patterns...)
	}
}

// WithCompareContent makes diff report equal-sized entries whose digests
// differ.
func WithCompareContent(compare bool) objtypes.DiffOption {
	return func(c *objtypes.DiffOptionConfig) {
		c.CompareContent = compare
	}
}

// WithDiffInclude adds include patterns for diff.
func WithDiffInclude(patterns ...string) objtypes.DiffOption {
	return func(c *objtypes.DiffOptionConfig) {
		c.IncludePatterns = append(c.IncludePatterns, patterns...)
	}
}

// WithDiffExclude adds exclude patterns for diff.
func WithDiffExclude(patterns ...string) objtypes.DiffOption {
	return func(c *objtypes.DiffOptionConfig) {
		c.ExcludePatterns = append(c.ExcludePatterns, patterns...)
	}
}

// WithRange selects bytes with an "N-M", "N-" or "bytes=N-M" string.
// It cannot be combined with WithOffset or WithLength.
func WithRange(rng string) objtypes.RangeOption {
	return func(c *objtypes.RangeOptionConfig) {
		c.Range = rng
	}
}

// WithOffset sets the first byte to read.
func WithOffset(offset int64) objtypes.RangeOption {
	return func(c *objtypes.RangeOptionConfig) {
		c.Offset = aws.Int64(offset)
	}
}

// WithLength limits how many bytes are read.
func WithLength(length int64) objtypes.RangeOption {
	return func(c *objtypes.RangeOptionConfig) {
		c.Length = aws.Int64(length)
	}
}

// WithRemoveRecursive removes every key under the prefix.
func WithRemoveRecursive(recursive bool) objtypes.RemoveOption {
	return func(c *objtypes.RemoveOptionConfig) {
		c.Recursive = recursive
	}
}

// WithRemoveInclude adds include patterns for recursive removes.
func WithRemoveInclude(patterns ...string) objtypes.RemoveOption {
	return func(c *objtypes.RemoveOptionConfig) {
		c.IncludePatterns = append(c.IncludePatterns, patterns...)
	}
}

// WithRemoveExclude adds exclude patterns for recursive removes.
func WithRemoveExclude(patterns ...string) objtypes.RemoveOption {
	return func(c *objtypes.RemoveOptionConfig) {
		c.ExcludePatterns = append(c.ExcludePatterns, patterns...)
	}
}

// WithStatChecksum computes the named checksum for local files.
func WithStatChecksum(algorithm string) objtypes.StatOption {
	return func(c *objtypes.StatOptionConfig) {
		c.ChecksumAlgorithm = algorithm
	}
}
