// Package stat reports metadata for a local file, a remote object or a
// bucket.
package stat

import (
	"context"
	"crypto/sha1" //nolint:gosec // matches the object store's SHA1 checksum
	"crypto/sha256"
	"encoding/base64"
	"hash"
	"hash/crc32"
	"io"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/rangespec"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Stater looks up metadata through the backend set.
type Stater struct {
	backends backend.Set
}

// New creates a Stater over backends.
func New(backends backend.Set) *Stater {
	return &Stater{backends: backends}
}

// Stat returns metadata for loc. A remote location without a key reports
// the bucket. Local files carry their MD5 as ETag and, when opts names an
// algorithm, the checksum the object store would report for the same bytes.
func (s *Stater) Stat(
	ctx context.Context,
	loc location.Location,
	opts objtypes.StatOptionConfig,
) (*objtypes.ObjectInfo, error) {
	algorithm := strings.ToUpper(opts.ChecksumAlgorithm)
	if algorithm != "" && newHash(algorithm) == nil {
		return nil, errors.NewError("stat", errors.ErrInvalidChecksumOption).
			WithMessage("invalid checksum algorithm " + opts.ChecksumAlgorithm + ", use CRC32, CRC32C, SHA1, or SHA256")
	}

	if loc.IsRemote() {
		if loc.Key == "" {
			return s.statBucket(ctx, loc.Bucket)
		}
		return s.backends.Remote.Stat(ctx, loc)
	}

	info, err := s.backends.Local.Stat(ctx, loc)
	if err != nil {
		return nil, err
	}
	if info.IsDir {
		return info, nil
	}

	if info.ETag, err = s.backends.Local.Digest(ctx, loc); err != nil {
		return nil, err
	}
	if algorithm != "" {
		sum, err := s.checksum(ctx, loc, algorithm)
		if err != nil {
			return nil, err
		}
		info.Checksums = map[string]string{algorithm: sum}
	}
	return info, nil
}

func (s *Stater) statBucket(ctx context.Context, bucket string) (*objtypes.ObjectInfo, error) {
	b, err := s.backends.Remote.StatBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	region := b.Region
	if region == "" {
		region = "us-east-1"
	}
	return &objtypes.ObjectInfo{
		Location: location.Remote(bucket, "").String(),
		IsBucket: true,
		Region:   region,
	}, nil
}

// checksum hashes the whole file and encodes the digest as base64, the
// form S3 uses for its stored checksums.
func (s *Stater) checksum(ctx context.Context, loc location.Location, algorithm string) (string, error) {
	r, err := s.backends.Local.OpenRange(ctx, loc, rangespec.Whole, backend.ReadOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	h := newHash(algorithm)
	if _, err := io.Copy(h, r); err != nil {
		return "", errors.NewError("stat", err).WithKey(loc.String())
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func newHash(algorithm string) hash.Hash {
	switch algorithm {
	case "CRC32":
		return crc32.NewIEEE()
	case "CRC32C":
		return crc32.New(crc32.MakeTable(crc32.Castagnoli))
	case "SHA1":
		return sha1.New() //nolint:gosec // matches the object store's SHA1 checksum
	case "SHA256":
		return sha256.New()
	default:
		return nil
	}
}
