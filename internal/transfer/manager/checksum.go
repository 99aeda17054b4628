package manager

import (
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// DefaultChecksumAlgorithm is requested on upload when checksums are enabled
// without an explicit algorithm.
const DefaultChecksumAlgorithm = "CRC32"

var checksumAlgorithms = map[string]bool{
	"CRC32":  true,
	"CRC32C": true,
	"SHA1":   true,
	"SHA256": true,
}

// Checksum is a validated ChecksumOptions value.
type Checksum struct {
	Enabled   bool
	Algorithm string
}

// UploadAlgorithm returns the algorithm to request on upload, or "" when
// checksums are disabled.
func (c Checksum) UploadAlgorithm() string {
	if !c.Enabled {
		return ""
	}
	if c.Algorithm == "" {
		return DefaultChecksumAlgorithm
	}
	return c.Algorithm
}

// ParseChecksum validates opts. Both fields are case-insensitive. The mode,
// when given, must be ENABLED.
func ParseChecksum(opts objtypes.ChecksumOptions) (Checksum, error) {
	var c Checksum

	if opts.Mode != "" {
		if strings.ToUpper(opts.Mode) != "ENABLED" {
			return Checksum{}, errors.NewError("checksum", errors.ErrInvalidChecksumOption).
				WithMessage("invalid checksum mode " + opts.Mode + ", use ENABLED")
		}
		c.Enabled = true
	}

	if opts.Algorithm != "" {
		algo := strings.ToUpper(opts.Algorithm)
		if !checksumAlgorithms[algo] {
			return Checksum{}, errors.NewError("checksum", errors.ErrInvalidChecksumOption).
				WithMessage("invalid checksum algorithm " + opts.Algorithm + ", use CRC32, CRC32C, SHA1, or SHA256")
		}
		c.Algorithm = algo
	}

	return c, nil
}
