package cat

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	billyfs "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend/local"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend/remote"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/rangespec"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/testutil"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

func newTestCatter(t *testing.T, client *testutil.FakeS3, opts ...Option) *Catter {
	t.Helper()
	fsys := billyfs.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("/data/alpha.txt", []byte(alphabet), 0o644))
	return New(backend.Set{Local: local.New(fsys), Remote: remote.New(client)}, opts...)
}

func mustRange(t *testing.T, s string, offset, length *int64) rangespec.Range {
	t.Helper()
	r, err := rangespec.Resolve(s, offset, length)
	require.NoError(t, err)
	return r
}

func TestCatter_Cat(t *testing.T) {
	fake := testutil.NewFakeS3("bucket")
	fake.Seed("bucket", "alpha.txt", []byte(alphabet))

	tests := []struct {
		name string
		rng  func(t *testing.T) rangespec.Range
		want string
	}{
		{"whole", func(*testing.T) rangespec.Range { return rangespec.Whole }, alphabet},
		{"closed range", func(t *testing.T) rangespec.Range { return mustRange(t, "0-4", nil, nil) }, "abcde"},
		{"open range", func(t *testing.T) rangespec.Range { return mustRange(t, "bytes=20-", nil, nil) }, "uvwxyz"},
		{"offset and length", func(t *testing.T) rangespec.Range {
			return mustRange(t, "", aws.Int64(3), aws.Int64(2))
		}, "de"},
		{"length past end", func(t *testing.T) rangespec.Range {
			return mustRange(t, "", aws.Int64(24), aws.Int64(100))
		}, "yz"},
	}

	locations := map[string]location.Location{
		"local":  location.Local("/data/alpha.txt"),
		"remote": location.Remote("bucket", "alpha.txt"),
	}

	for kind, loc := range locations {
		for _, tt := range tests {
			t.Run(kind+"/"+tt.name, func(t *testing.T) {
				c := newTestCatter(t, fake, WithChunkSize(4))
				var buf bytes.Buffer
				n, err := c.Cat(context.Background(), loc, tt.rng(t), &buf)
				require.NoError(t, err)
				assert.Equal(t, tt.want, buf.String())
				assert.Equal(t, int64(len(tt.want)), n)
			})
		}
	}
}

func TestCatter_BucketIsRejected(t *testing.T) {
	c := newTestCatter(t, testutil.NewFakeS3("bucket"))

	_, err := c.Cat(context.Background(), location.Remote("bucket", ""), rangespec.Whole, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestCatter_MissingObject(t *testing.T) {
	c := newTestCatter(t, testutil.NewFakeS3("bucket"))

	_, err := c.Cat(context.Background(), location.Remote("bucket", "nope"), rangespec.Whole, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsObjectNotFound(err))

	_, err = c.Cat(context.Background(), location.Local("/data/nope"), rangespec.Whole, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsObjectNotFound(err))
}

func TestCatter_StopsAtLengthEvenIfBackendOverReads(t *testing.T) {
	// A store that ignores the Range header still yields only the requested bytes.
	mock := &testutil.StubS3{
		GetObjectFunc: func(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(alphabet))}, nil
		},
	}
	c := New(backend.Set{Local: local.New(billyfs.NewInMemoryFS()), Remote: remote.New(mock)}, WithChunkSize(3))

	var buf bytes.Buffer
	n, err := c.Cat(context.Background(), location.Remote("bucket", "k"), mustRange(t, "0-6", nil, nil), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "abcdefg", buf.String())
}

func TestCatter_Progress(t *testing.T) {
	fake := testutil.NewFakeS3("bucket")
	fake.Seed("bucket", "alpha.txt", []byte(alphabet))
	progress := &testutil.ProgressRecorder{}
	c := newTestCatter(t, fake, WithChunkSize(10), WithProgress(progress))

	_, err := c.Cat(context.Background(), location.Remote("bucket", "alpha.txt"), rangespec.Whole, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, int64(26), progress.Last().Transferred)
	assert.True(t, progress.Completed())
}
