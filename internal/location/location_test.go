package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Location
		wantErr error
	}{
		{
			name:  "bucket and key",
			input: "s3://bucket/path/to/file.txt",
			want:  Remote("bucket", "path/to/file.txt"),
		},
		{
			name:  "bucket only",
			input: "s3://bucket",
			want:  Remote("bucket", ""),
		},
		{
			name:  "bucket with trailing slash",
			input: "s3://bucket/",
			want:  Remote("bucket", ""),
		},
		{
			name:  "relative local path",
			input: "data/file.txt",
			want:  Local("data/file.txt"),
		},
		{
			name:  "absolute local path",
			input: "/tmp/x",
			want:  Local("/tmp/x"),
		},
		{
			name:  "other scheme is local",
			input: "gs://bucket/key",
			want:  Local("gs://bucket/key"),
		},
		{
			name:    "empty bucket",
			input:   "s3://",
			wantErr: errors.ErrInvalidLocation,
		},
		{
			name:    "empty bucket with key",
			input:   "s3:///key",
			wantErr: errors.ErrInvalidLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, errors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinKey(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"prefix", "file.txt", "prefix/file.txt"},
		{"prefix/", "file.txt", "prefix/file.txt"},
		{"", "f", "f"},
		{"", "/f", "f"},
		{"a/b", "/c/d", "a/b/c/d"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix+"+"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinKey(tt.prefix, tt.name))
		})
	}
}

func TestLocation_JoinAndString(t *testing.T) {
	remote := Remote("bucket", "dir")
	assert.Equal(t, Remote("bucket", "dir/a/b.txt"), remote.Join("a/b.txt"))
	assert.Equal(t, "s3://bucket/dir", remote.String())
	assert.Equal(t, "s3://bucket", Remote("bucket", "").String())

	local := Local("/tmp/out")
	assert.Equal(t, Local("/tmp/out/a/b.txt"), local.Join("a/b.txt"))
	assert.Equal(t, "/tmp/out", local.String())
}

func TestLocation_BaseAndDirLike(t *testing.T) {
	assert.Equal(t, "file.txt", Remote("b", "dir/file.txt").Base())
	assert.Equal(t, "dir", Remote("b", "dir/").Base())
	assert.Equal(t, "x.bin", Local("/tmp/x.bin").Base())

	assert.True(t, Remote("b", "").IsDirLike())
	assert.True(t, Remote("b", "dir/").IsDirLike())
	assert.False(t, Remote("b", "dir/file").IsDirLike())
	assert.True(t, Local("out/").IsDirLike())
	assert.False(t, Local("out").IsDirLike())
}

func TestPairOf(t *testing.T) {
	assert.Equal(t, LocalToRemote, PairOf(Local("a"), Remote("b", "k")))
	assert.Equal(t, RemoteToLocal, PairOf(Remote("b", "k"), Local("a")))
	assert.Equal(t, "remote->remote", PairOf(Remote("b", "k"), Remote("c", "k")).String())
}

func TestLocation_JoinWithin(t *testing.T) {
	tests := []struct {
		name    string
		root    Location
		rel     string
		want    Location
		wantErr bool
	}{
		{name: "nested", root: Local("/dst"), rel: "a/b.txt", want: Local("/dst/a/b.txt")},
		{name: "dot segments that stay inside", root: Local("/dst"), rel: "a/../b.txt", want: Local("/dst/b.txt")},
		{name: "dotted name", root: Local("/dst"), rel: "..hidden", want: Local("/dst/..hidden")},
		{name: "climbs out", root: Local("/dst"), rel: "../../escaped.txt", wantErr: true},
		{name: "climbs out after descending", root: Local("/dst"), rel: "a/../../x", wantErr: true},
		{name: "parent only", root: Local("/dst"), rel: "..", wantErr: true},
		{name: "absolute", root: Local("/dst"), rel: "/etc/passwd", wantErr: true},
		{name: "remote keys are opaque", root: Remote("b", "out"), rel: "../x", want: Remote("b", "out/../x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.root.JoinWithin(tt.rel)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
