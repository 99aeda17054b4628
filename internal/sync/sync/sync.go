// Package sync makes a destination tree contain every source entry, copying
// only entries that are missing or whose size differs.
//
// A sync runs in two phases. The destination is collected into a size index
// first; the source is then walked and each entry is planned and, unless this
// is a dry run, transferred before the next entry is visited. Destination
// entries absent from the source are left in place.
package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/comparator"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/planner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/transfer/manager"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Manager coordinates the sync phases.
type Manager struct {
	scanner    *scanner.Scanner
	comparator *comparator.Comparator
	transfers  *manager.Manager
	logger     *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a sync manager from its components.
func NewManager(
	sc *scanner.Scanner,
	cmp *comparator.Comparator,
	transfers *manager.Manager,
	opts ...Option,
) *Manager {
	m := &Manager{
		scanner:    sc,
		comparator: cmp,
		transfers:  transfers,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sync runs one sync. Source entries whose relative path would leave a local
// destination are skipped and left out of the plan. The first transfer
// failure stops the run and the partial result is returned with the error.
func (m *Manager) Sync(ctx context.Context, cfg *Config) (*objtypes.SyncResult, error) {
	start := time.Now()

	if location.PairOf(cfg.Source, cfg.Destination) == location.LocalToLocal {
		return nil, errors.NewError("sync", errors.ErrNotImplemented).
			WithMessage("local to local sync")
	}

	destSizes, err := m.buildDestinationIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}

	result := &objtypes.SyncResult{DryRun: cfg.DryRun}
	err = m.scanner.Walk(ctx, cfg.Source, cfg.Filter, func(item scanner.Item) error {
		target, err := cfg.Destination.JoinWithin(item.RelPath)
		if err != nil {
			m.logger.Warn("skipping entry outside destination",
				"source", item.Location.String(),
				"error", err)
			return nil
		}

		op := planner.Plan(item, cfg.Destination, destSizes)
		result.Operations = append(result.Operations, op)

		if op.Type == objtypes.SyncSkip {
			result.FilesSkipped++
			m.logger.Debug("skipping unchanged", "path", op.RelativeKey)
			return nil
		}
		if cfg.DryRun {
			m.logger.Info("would transfer", "path", op.RelativeKey, "reason", op.Reason)
			return nil
		}

		res, err := m.transfers.CopyExact(ctx, item.Location, target)
		if err != nil {
			return err
		}
		result.FilesTransferred++
		result.BytesTransferred += res.Bytes
		return nil
	})
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	m.logger.Info("sync complete",
		"transferred", result.FilesTransferred,
		"skipped", result.FilesSkipped,
		"size", humanize.IBytes(uint64(result.BytesTransferred)),
		"dryRun", cfg.DryRun)
	return result, nil
}

// buildDestinationIndex maps destination relative keys to sizes. A local
// destination that does not exist yet is empty.
func (m *Manager) buildDestinationIndex(ctx context.Context, cfg *Config) (map[string]int64, error) {
	meta, err := m.comparator.Collect(ctx, cfg.Destination, cfg.Filter, false)
	if err != nil {
		if cfg.Destination.IsLocal() && errors.IsObjectNotFound(err) {
			return map[string]int64{}, nil
		}
		return nil, err
	}

	sizes := make(map[string]int64, len(meta))
	for key, md := range meta {
		sizes[key] = md.Size
	}
	return sizes, nil
}
