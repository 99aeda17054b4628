// Package remove deletes objects from the object store, one key or a
// filtered prefix at a time.
package remove

import (
	"context"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Remover deletes remote objects.
type Remover struct {
	store  backend.ObjectStore
	logger *slog.Logger
}

// Option configures a Remover.
type Option func(*Remover)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Remover) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Remover over the remote backend.
func New(store backend.ObjectStore, opts ...Option) *Remover {
	r := &Remover{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Remove deletes loc. Without recursive, loc must name a single key. With
// recursive, every key under the prefix that passes filter is deleted in
// listing order, folder markers included. Deletion stops at the first
// failure and the keys removed so far are returned with the error.
func (r *Remover) Remove(
	ctx context.Context,
	loc location.Location,
	recursive bool,
	filter *scanner.Filter,
) (*objtypes.RemoveResult, error) {
	if !loc.IsRemote() {
		return nil, errors.NewError("remove", errors.ErrInvalidInput).
			WithKey(loc.String()).
			WithMessage("remove requires an s3:// location")
	}

	result := &objtypes.RemoveResult{}

	if !recursive {
		if loc.Key == "" {
			return nil, errors.NewBucketError("remove", loc.Bucket, errors.ErrInvalidInput).
				WithMessage("object key required, use recursive to remove a prefix")
		}
		if err := r.store.Delete(ctx, loc); err != nil {
			return nil, err
		}
		r.logger.Info("deleted", "location", loc.String())
		result.Deleted = 1
		result.Keys = []string{loc.Key}
		return result, nil
	}

	err := r.store.List(ctx, loc, true, func(e backend.Entry) error {
		if e.IsPrefix {
			return nil
		}
		if !filter.Matches(scanner.RelativeName(loc.Key, e.Key)) {
			return nil
		}

		target := location.Remote(loc.Bucket, e.Key)
		if err := r.store.Delete(ctx, target); err != nil {
			return err
		}
		r.logger.Info("deleted", "location", target.String())
		result.Deleted++
		result.Keys = append(result.Keys, e.Key)
		return nil
	})
	if err != nil {
		return result, err
	}

	r.logger.Info("remove complete", "prefix", loc.String(), "deleted", result.Deleted)
	return result, nil
}
