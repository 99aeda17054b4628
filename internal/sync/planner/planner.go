// Package planner decides, per source entry, whether a sync must transfer it.
//
// The decision uses sizes only: an entry missing at the destination or whose
// destination size differs is transferred, anything else is skipped.
// Destination entries without a source counterpart are never planned for
// deletion.
package planner

import (
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Reasons attached to planned operations.
const (
	ReasonNew       = "new file"
	ReasonSize      = "size changed"
	ReasonUnchanged = "unchanged"
)

// Plan returns the operation for one source item. destSizes maps relative
// keys under dstRoot to their sizes.
func Plan(item scanner.Item, dstRoot location.Location, destSizes map[string]int64) objtypes.SyncOperation {
	op := objtypes.SyncOperation{
		RelativeKey: item.RelPath,
		Source:      item.Location.String(),
		Destination: dstRoot.Join(item.RelPath).String(),
		Size:        item.Size,
	}

	size, exists := destSizes[item.RelPath]
	switch {
	case !exists:
		op.Type = objtypes.SyncTransfer
		op.Reason = ReasonNew
	case size != item.Size:
		op.Type = objtypes.SyncTransfer
		op.Reason = ReasonSize
	default:
		op.Type = objtypes.SyncSkip
		op.Reason = ReasonUnchanged
	}
	return op
}
