package objsync

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/sync"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Sync makes dst contain every entry of src, transferring only entries
// that are missing at the destination or whose size differs. It never
// deletes anything at the destination.
//
// Local to remote, remote to local and remote to remote are supported. A
// missing local destination directory is treated as empty. Local to local
// returns ErrNotImplemented.
//
// Returns:
//   - *SyncResult: Counts of transferred and skipped entries plus every
//     planned operation, also on failure
//   - error: The first transfer failure, which stops the sync
//
// Example:
//
//	result, err := client.Sync(ctx, "s3://my-bucket/reports/", "./reports",
//	    objsync.WithSyncDryRun(true),
//	    objsync.WithSyncInclude("*.csv"),
//	)
//	if err != nil {
//	    return fmt.Errorf("sync failed: %w", err)
//	}
//	fmt.Printf("Transferred %d files (%d bytes)\n", result.FilesTransferred, result.BytesTransferred)
func (c *Client) Sync(
	ctx context.Context,
	src, dst string,
	opts ...objtypes.SyncOption,
) (*objtypes.SyncResult, error) {
	cfg := &objtypes.SyncOptionConfig{}
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

	return c.syncer.Sync(ctx, &sync.Config{
		Source:      srcLoc,
		Destination: dstLoc,
		Filter:      filter,
		DryRun:      cfg.DryRun,
	})
}

// Diff compares the trees under src and dst by relative key and reports
// entries only on one side or with different sizes. With
// WithCompareContent, equal-sized entries whose digests differ are
// reported too; entries without a digest on either side (multipart
// uploads) are never reported as content differences. Found differences
// are results, not errors.
func (c *Client) Diff(
	ctx context.Context,
	src, dst string,
	opts ...objtypes.DiffOption,
) (*objtypes.DiffResult, error) {
	cfg := &objtypes.DiffOptionConfig{}
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

	return c.comparator.Diff(ctx, srcLoc, dstLoc, filter, cfg.CompareContent)
}
