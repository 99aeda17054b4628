// Package rangespec resolves the byte range options shared by read commands.
//
// A range may be given either as a string ("bytes=0-99", "100-") or as an
// offset and optional length, never both.
package rangespec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
)

// Range is a resolved byte range. A nil Start means offset zero and a nil
// Length means "to the end of the object".
type Range struct {
	Start  *int64
	Length *int64
}

// Whole is the range covering an entire object.
var Whole = Range{}

// Resolve validates and normalises the three range inputs. An empty rangeStr
// means no range string was given.
func Resolve(rangeStr string, offset, length *int64) (Range, error) {
	if rangeStr != "" {
		if offset != nil || length != nil {
			return Range{}, errors.NewError("resolveRange", errors.ErrConflictingRangeOptions)
		}
		return parse(rangeStr)
	}

	if offset != nil && *offset < 0 {
		return Range{}, invalid(fmt.Sprintf("negative offset %d", *offset))
	}
	if length != nil && *length <= 0 {
		return Range{}, invalid(fmt.Sprintf("length must be positive, got %d", *length))
	}
	if offset != nil && length != nil && *length > math.MaxInt64-*offset {
		return Range{}, invalid(fmt.Sprintf("range %d+%d overflows", *offset, *length))
	}

	return Range{Start: offset, Length: length}, nil
}

func parse(s string) (Range, error) {
	spec := strings.TrimPrefix(strings.TrimSpace(s), "bytes=")

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return Range{}, invalid(fmt.Sprintf("%q: expected start-end or start-", s))
	}

	start, err := parsePosition(startStr)
	if err != nil {
		return Range{}, invalid(fmt.Sprintf("%q: bad start", s))
	}

	if endStr == "" {
		return Range{Start: &start}, nil
	}

	end, err := parsePosition(endStr)
	if err != nil {
		return Range{}, invalid(fmt.Sprintf("%q: bad end", s))
	}
	if end < start {
		return Range{}, invalid(fmt.Sprintf("%q: end before start", s))
	}
	// The inclusive length of 0-MaxInt64 does not fit in an int64.
	if end == math.MaxInt64 {
		return Range{}, invalid(fmt.Sprintf("%q: end out of range", s))
	}

	length := end - start + 1
	return Range{Start: &start, Length: &length}, nil
}

// parsePosition accepts unsigned decimal digits only, up to math.MaxInt64.
func parsePosition(s string) (int64, error) {
	n, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func invalid(msg string) error {
	return errors.NewError("resolveRange", errors.ErrInvalidRangeFormat).WithMessage(msg)
}

// Offset returns the first byte of the range.
func (r Range) Offset() int64 {
	if r.Start == nil {
		return 0
	}
	return *r.Start
}

// Bounded reports whether the range has an explicit length.
func (r Range) Bounded() bool {
	return r.Length != nil
}

// IsWhole reports whether the range covers the entire object.
func (r Range) IsWhole() bool {
	return r.Offset() == 0 && r.Length == nil
}

// Header renders the range as an HTTP Range header value, or "" for the
// whole object.
func (r Range) Header() string {
	if r.IsWhole() {
		return ""
	}
	if r.Length == nil {
		return fmt.Sprintf("bytes=%d-", r.Offset())
	}
	return fmt.Sprintf("bytes=%d-%d", r.Offset(), r.Offset()+*r.Length-1)
}

// String is Header without the unit prefix, or "all".
func (r Range) String() string {
	h := r.Header()
	if h == "" {
		return "all"
	}
	return strings.TrimPrefix(h, "bytes=")
}
