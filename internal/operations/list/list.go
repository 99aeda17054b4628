// Package list enumerates buckets, or the objects and common prefixes under
// a remote location.
package list

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Lister lists the object store.
type Lister struct {
	store backend.ObjectStore
}

// New creates a Lister over the remote backend.
func New(store backend.ObjectStore) *Lister {
	return &Lister{store: store}
}

// List lists buckets when loc is nil and the objects under loc otherwise.
// Buckets are reported as prefix entries keyed by name with their creation
// date as LastModified.
func (l *Lister) List(
	ctx context.Context,
	loc *location.Location,
	recursive bool,
	fn func(objtypes.Object) error,
) (*objtypes.ListSummary, error) {
	if loc != nil {
		return l.Objects(ctx, *loc, recursive, fn)
	}

	buckets, err := l.Buckets(ctx)
	if err != nil {
		return nil, err
	}

	summary := &objtypes.ListSummary{}
	for _, b := range buckets {
		if err := fn(objtypes.Object{
			Key:          b.Name,
			LastModified: b.CreationDate,
			IsPrefix:     true,
		}); err != nil {
			return summary, err
		}
		summary.Buckets++
	}
	return summary, nil
}

// Buckets returns every bucket visible to the caller.
func (l *Lister) Buckets(ctx context.Context) ([]objtypes.Bucket, error) {
	return l.store.ListBuckets(ctx)
}

// Objects calls fn for every entry under loc. Non-recursive listings yield
// common prefixes with IsPrefix set; only objects count towards Bytes.
func (l *Lister) Objects(
	ctx context.Context,
	loc location.Location,
	recursive bool,
	fn func(objtypes.Object) error,
) (*objtypes.ListSummary, error) {
	if !loc.IsRemote() {
		return nil, errors.NewError("list", errors.ErrInvalidInput).
			WithKey(loc.String()).
			WithMessage("list requires an s3:// location")
	}

	summary := &objtypes.ListSummary{}
	err := l.store.List(ctx, loc, recursive, func(e backend.Entry) error {
		if e.IsPrefix {
			summary.Prefixes++
		} else {
			summary.Objects++
			summary.Bytes += e.Size
		}
		return fn(objtypes.Object{
			Key:          e.Key,
			Size:         e.Size,
			LastModified: e.ModTime,
			ETag:         e.Digest,
			StorageClass: e.StorageClass,
			IsPrefix:     e.IsPrefix,
		})
	})
	if err != nil {
		return summary, err
	}
	return summary, nil
}
