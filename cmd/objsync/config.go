package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-ini/ini"

	"github.com/input-output-hk/catalyst-forge-libs/objsync"
)

const (
	keyMultipartThreshold = "multipart_threshold"
	keyMultipartChunkSize = "multipart_chunksize"
)

// multipartSettings are the transfer sizes read from the AWS config file.
type multipartSettings struct {
	Threshold int64
	ChunkSize int64
}

func defaultMultipartSettings() multipartSettings {
	return multipartSettings{
		Threshold: objsync.DefaultMultipartThreshold,
		ChunkSize: objsync.DefaultMultipartChunkSize,
	}
}

// configFilePath returns AWS_CONFIG_FILE or ~/.aws/config.
func configFilePath() string {
	if p := os.Getenv("AWS_CONFIG_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "config")
}

// profileSection maps a profile name to its section header in the config file.
func profileSection(profile string) string {
	if profile == "" || profile == "default" {
		return "default"
	}
	return "profile " + profile
}

// loadMultipartSettings reads multipart_threshold and multipart_chunksize
// from the [s3] section and then the profile section, which wins. A missing
// file or an unparsable value leaves the default in place.
func loadMultipartSettings(path, profile string, logger *slog.Logger) multipartSettings {
	settings := defaultMultipartSettings()
	if path == "" {
		return settings
	}

	// Nested "s3 =" lines are indented keys, which the parser reads as
	// ordinary keys of the enclosing section.
	f, err := ini.LoadSources(ini.LoadOptions{
		Loose:                   true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		logger.Debug("aws config file not loaded", "path", path, "error", err)
		return settings
	}

	for _, name := range []string{"s3", profileSection(profile)} {
		section, err := f.GetSection(name)
		if err != nil {
			continue
		}
		applySize(section, keyMultipartThreshold, &settings.Threshold, logger)
		applySize(section, keyMultipartChunkSize, &settings.ChunkSize, logger)
	}
	return settings
}

func applySize(section *ini.Section, key string, dst *int64, logger *slog.Logger) {
	if !section.HasKey(key) {
		return
	}
	raw := section.Key(key).String()
	size, err := parseSize(raw)
	if err != nil {
		logger.Warn("ignoring invalid size in aws config",
			"section", section.Name(),
			"key", key,
			"value", raw,
			"error", err)
		return
	}
	*dst = size
}

// binaryUnits rewrites the suffixes used in AWS config files to their
// binary form, since humanize treats "MB" as 10^6.
var binaryUnits = map[string]string{
	"K":  "KiB",
	"KB": "KiB",
	"M":  "MiB",
	"MB": "MiB",
	"G":  "GiB",
	"GB": "GiB",
	"T":  "TiB",
	"TB": "TiB",
}

// parseSize accepts plain byte counts and 8MB, 5M, 1GiB style values.
func parseSize(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return checkSize(n)
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != ' '
	})
	if split > 0 {
		number := strings.TrimSpace(s[:split])
		unit := strings.ToUpper(strings.TrimSpace(s[split:]))
		if bin, ok := binaryUnits[unit]; ok {
			s = number + " " + bin
		}
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", raw, err)
	}
	return checkSize(n)
}

func checkSize(n uint64) (int64, error) {
	if n == 0 {
		return 0, fmt.Errorf("size must be greater than zero")
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %d overflows int64", n)
	}
	return int64(n), nil
}
