package scanner

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
)

// Filter decides which relative paths take part in a recursive operation.
// It is immutable once built and safe to share.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter validates every pattern and returns a Filter. A nil *Filter
// matches everything.
func NewFilter(include, exclude []string) (*Filter, error) {
	if err := ValidatePatterns(include); err != nil {
		return nil, err
	}
	if err := ValidatePatterns(exclude); err != nil {
		return nil, err
	}

	return &Filter{
		include: normalizePatterns(include),
		exclude: normalizePatterns(exclude),
	}, nil
}

// Matches reports whether relPath passes the filter. Excludes take
// precedence; when include patterns exist at least one must match.
func (f *Filter) Matches(relPath string) bool {
	if f == nil {
		return true
	}

	relPath = filepath.ToSlash(relPath)

	for _, pattern := range f.exclude {
		if matchesPattern(relPath, pattern) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}

	for _, pattern := range f.include {
		if matchesPattern(relPath, pattern) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the filter has no patterns at all.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.include) == 0 && len(f.exclude) == 0)
}

// matchesPattern supports doublestar globs. A pattern ending in '/' matches
// everything below that directory, and a pattern without '/' is also tried
// against the final path segment so "*.log" matches "logs/app.log".
func matchesPattern(relPath, pattern string) bool {
	if dir, ok := strings.CutSuffix(pattern, "/"); ok {
		return relPath == dir || strings.HasPrefix(relPath, dir+"/")
	}

	if doublestar.MatchUnvalidated(pattern, relPath) {
		return true
	}

	if !strings.Contains(pattern, "/") {
		return doublestar.MatchUnvalidated(pattern, path.Base(relPath))
	}
	return false
}

func normalizePatterns(patterns []string) []string {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, filepath.ToSlash(p))
	}
	return out
}

// ValidatePatterns checks that every pattern is a well-formed glob.
func ValidatePatterns(patterns []string) error {
	for i, pattern := range patterns {
		if pattern == "" || !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return &PatternError{
				Pattern: pattern,
				Index:   i,
				Err:     errors.ErrInvalidPattern,
			}
		}
	}
	return nil
}

// PatternError represents an error with a pattern.
type PatternError struct {
	Pattern string
	Index   int
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern at index %d '%s': %v", e.Index, e.Pattern, e.Err)
}

// Unwrap returns the underlying error so errors.Is sees ErrInvalidPattern.
func (e *PatternError) Unwrap() error {
	return e.Err
}
