package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain bytes", input: "10485760", want: 10485760},
		{name: "megabytes", input: "8MB", want: 8 * 1024 * 1024},
		{name: "short megabytes", input: "5M", want: 5 * 1024 * 1024},
		{name: "lower case", input: "16mb", want: 16 * 1024 * 1024},
		{name: "kilobytes with space", input: "512 KB", want: 512 * 1024},
		{name: "gigabytes", input: "1G", want: 1 << 30},
		{name: "binary suffix", input: "64MiB", want: 64 * 1024 * 1024},
		{name: "surrounding spaces", input: "  7MB ", want: 7 * 1024 * 1024},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "garbage", input: "lots", wantErr: true},
		{name: "negative", input: "-5MB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMultipartSettings(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	defaults := defaultMultipartSettings()

	t.Run("missing file keeps defaults", func(t *testing.T) {
		got := loadMultipartSettings(filepath.Join(t.TempDir(), "absent"), "", logger)
		assert.Equal(t, defaults, got)
		assert.Equal(t, int64(8388608), got.Threshold)
		assert.Equal(t, int64(8388608), got.ChunkSize)
	})

	t.Run("s3 section", func(t *testing.T) {
		path := writeConfig(t, `[s3]
multipart_threshold = 64MB
multipart_chunksize = 16MB
`)
		got := loadMultipartSettings(path, "", logger)
		assert.Equal(t, int64(64<<20), got.Threshold)
		assert.Equal(t, int64(16<<20), got.ChunkSize)
	})

	t.Run("profile overrides s3 section", func(t *testing.T) {
		path := writeConfig(t, `[s3]
multipart_threshold = 64MB
multipart_chunksize = 16MB

[profile staging]
region = eu-west-1
multipart_chunksize = 32MB
`)
		got := loadMultipartSettings(path, "staging", logger)
		assert.Equal(t, int64(64<<20), got.Threshold)
		assert.Equal(t, int64(32<<20), got.ChunkSize)

		other := loadMultipartSettings(path, "prod", logger)
		assert.Equal(t, int64(16<<20), other.ChunkSize)
	})

	t.Run("default profile with nested block", func(t *testing.T) {
		path := writeConfig(t, `[default]
region = us-east-1
s3 =
    multipart_threshold = 20MB
    multipart_chunksize = 10485760
`)
		got := loadMultipartSettings(path, "default", logger)
		assert.Equal(t, int64(20<<20), got.Threshold)
		assert.Equal(t, int64(10485760), got.ChunkSize)
	})

	t.Run("invalid values are ignored", func(t *testing.T) {
		path := writeConfig(t, `[default]
multipart_threshold = huge
multipart_chunksize = 0
`)
		got := loadMultipartSettings(path, "", logger)
		assert.Equal(t, defaults, got)
	})
}

func TestProfileSection(t *testing.T) {
	assert.Equal(t, "default", profileSection(""))
	assert.Equal(t, "default", profileSection("default"))
	assert.Equal(t, "profile dev", profileSection("dev"))
}

func TestConfigFilePath(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/etc/aws/config")
	assert.Equal(t, "/etc/aws/config", configFilePath())

	t.Setenv("AWS_CONFIG_FILE", "")
	t.Setenv("HOME", "/home/ops")
	assert.Equal(t, filepath.Join("/home/ops", ".aws", "config"), configFilePath())
}
