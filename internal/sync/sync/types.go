package sync

import (
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
)

// Config holds configuration for a sync operation.
type Config struct {
	// Source is the tree to sync from
	Source location.Location

	// Destination is the tree to sync to
	Destination location.Location

	// Filter selects entries on both sides; nil admits everything
	Filter *scanner.Filter

	// DryRun plans operations without transferring anything
	DryRun bool
}
