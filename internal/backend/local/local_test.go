package local

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	billyfs "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/cache"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/rangespec"
)

func newTestBackend(t *testing.T, files map[string]string, opts ...Option) *Backend {
	t.Helper()
	fsys := billyfs.NewInMemoryFS()
	for path, content := range files {
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
	}
	return New(fsys, opts...)
}

func TestBackend_Stat(t *testing.T) {
	b := newTestBackend(t, map[string]string{"/data/a.txt": "hello"})
	ctx := context.Background()

	info, err := b.Stat(ctx, location.Local("/data/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "/data/a.txt", info.Location)
	assert.False(t, info.IsDir)
	assert.Contains(t, info.ContentType, "text/plain")

	dir, err := b.Stat(ctx, location.Local("/data"))
	require.NoError(t, err)
	assert.True(t, dir.IsDir)
	assert.Equal(t, "directory", dir.FileType())

	_, err = b.Stat(ctx, location.Local("/data/missing"))
	require.Error(t, err)
	assert.True(t, errors.IsObjectNotFound(err))
}

func TestBackend_ListRecursive(t *testing.T) {
	b := newTestBackend(t, map[string]string{
		"/src/b.txt":     "bb",
		"/src/a/x.txt":   "x",
		"/src/a/y/z.txt": "zzz",
		"/other/q.txt":   "q",
	})

	var keys []string
	var sizes []int64
	err := b.List(context.Background(), location.Local("/src"), true, func(e backend.Entry) error {
		keys = append(keys, e.Key)
		sizes = append(sizes, e.Size)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/a/x.txt", "/src/a/y/z.txt", "/src/b.txt"}, keys)
	assert.Equal(t, []int64{1, 3, 2}, sizes)
}

func TestBackend_ListNonRecursive(t *testing.T) {
	b := newTestBackend(t, map[string]string{
		"/src/b.txt":   "bb",
		"/src/a/x.txt": "x",
	})

	var entries []backend.Entry
	err := b.List(context.Background(), location.Local("/src"), false, func(e backend.Entry) error {
		entries = append(entries, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/src/a/", entries[0].Key)
	assert.True(t, entries[0].IsPrefix)
	assert.Equal(t, "/src/b.txt", entries[1].Key)
	assert.False(t, entries[1].IsPrefix)
}

func TestBackend_ListMissingRoot(t *testing.T) {
	b := newTestBackend(t, nil)
	err := b.List(context.Background(), location.Local("/nope"), true, func(backend.Entry) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestBackend_OpenRange(t *testing.T) {
	b := newTestBackend(t, map[string]string{"/f.bin": "0123456789"})
	ctx := context.Background()

	tests := []struct {
		name string
		rng  rangespec.Range
		want string
	}{
		{"whole", rangespec.Whole, "0123456789"},
		{"bounded", rangespec.Range{Start: aws.Int64(2), Length: aws.Int64(3)}, "234"},
		{"open ended", rangespec.Range{Start: aws.Int64(7)}, "789"},
		{"length past end", rangespec.Range{Start: aws.Int64(8), Length: aws.Int64(10)}, "89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := b.OpenRange(ctx, location.Local("/f.bin"), tt.rng, backend.ReadOptions{})
			require.NoError(t, err)
			defer rc.Close()

			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestBackend_PutCreatesParents(t *testing.T) {
	b := newTestBackend(t, nil)
	ctx := context.Background()
	dst := location.Local("/out/deep/nested/file.txt")

	require.NoError(t, b.Put(ctx, dst, strings.NewReader("payload"), 7, backend.PutOptions{}))

	data, err := b.Filesystem().ReadFile("/out/deep/nested/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.True(t, b.IsDir(location.Local("/out/deep")))
}

func TestBackend_Digest(t *testing.T) {
	b := newTestBackend(t, map[string]string{"/a.txt": "hello"})

	digest, err := b.Digest(context.Background(), location.Local("/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", digest)
}

type memDigests struct {
	entries map[string]string
	puts    int
}

func (m *memDigests) Get(path string, _ int64, _ time.Time) (string, bool) {
	d, ok := m.entries[path]
	return d, ok
}

func (m *memDigests) Put(path string, _ int64, _ time.Time, digest string) error {
	m.puts++
	m.entries[path] = digest
	return nil
}

func (m *memDigests) Delete(path string) error {
	delete(m.entries, path)
	return nil
}

var _ DigestStore = (*cache.DigestCache)(nil)

func TestBackend_DigestUsesCache(t *testing.T) {
	store := &memDigests{entries: map[string]string{}}
	b := newTestBackend(t, map[string]string{"/a.txt": "hello"}, WithDigestCache(store))
	ctx := context.Background()

	_, err := b.Digest(ctx, location.Local("/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.puts)

	store.entries["/a.txt"] = "cached"
	digest, err := b.Digest(ctx, location.Local("/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "cached", digest)
	assert.Equal(t, 1, store.puts)
}

func TestBackend_Delete(t *testing.T) {
	b := newTestBackend(t, map[string]string{"/a.txt": "x"})
	ctx := context.Background()

	require.NoError(t, b.Delete(ctx, location.Local("/a.txt")))
	_, err := b.Stat(ctx, location.Local("/a.txt"))
	assert.True(t, errors.IsObjectNotFound(err))
}

func TestBackend_DeleteDropsCachedDigest(t *testing.T) {
	store := &memDigests{entries: map[string]string{}}
	b := newTestBackend(t, map[string]string{"/a.txt": "hello", "/b.txt": "other"}, WithDigestCache(store))
	ctx := context.Background()

	for _, path := range []string{"/a.txt", "/b.txt"} {
		_, err := b.Digest(ctx, location.Local(path))
		require.NoError(t, err)
	}
	require.Len(t, store.entries, 2)

	require.NoError(t, b.Delete(ctx, location.Local("/a.txt")))
	assert.NotContains(t, store.entries, "/a.txt")
	assert.Contains(t, store.entries, "/b.txt")
}

func TestBackend_PutDropsCachedDigest(t *testing.T) {
	store := &memDigests{entries: map[string]string{}}
	b := newTestBackend(t, map[string]string{"/a.txt": "hello"}, WithDigestCache(store))
	ctx := context.Background()

	_, err := b.Digest(ctx, location.Local("/a.txt"))
	require.NoError(t, err)
	require.Contains(t, store.entries, "/a.txt")

	require.NoError(t, b.Put(ctx, location.Local("/a.txt"), strings.NewReader("world"), 5, backend.PutOptions{}))
	assert.NotContains(t, store.entries, "/a.txt")

	digest, err := b.Digest(ctx, location.Local("/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "7d793037a0760186574b0282f2f435e7", digest)
}

func TestBackend_DeleteWithPersistentCache(t *testing.T) {
	dc, err := cache.Open(filepath.Join(t.TempDir(), "digests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dc.Close() })

	b := newTestBackend(t, map[string]string{"/a.txt": "hello"}, WithDigestCache(dc))
	ctx := context.Background()

	info, err := b.Filesystem().Stat("/a.txt")
	require.NoError(t, err)
	_, err = b.Digest(ctx, location.Local("/a.txt"))
	require.NoError(t, err)
	_, ok := dc.Get("/a.txt", info.Size(), info.ModTime())
	require.True(t, ok)

	require.NoError(t, b.Delete(ctx, location.Local("/a.txt")))
	_, ok = dc.Get("/a.txt", info.Size(), info.ModTime())
	assert.False(t, ok)
}

func TestBackend_RejectsRemoteLocation(t *testing.T) {
	b := newTestBackend(t, nil)
	_, err := b.Stat(context.Background(), location.Remote("bucket", "key"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
