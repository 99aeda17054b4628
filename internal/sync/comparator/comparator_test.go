package comparator

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"testing"

	billyfs "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend/local"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend/remote"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/transfer/manager"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func meta(key string, size int64, digest string) objtypes.ObjectMetadata {
	return objtypes.ObjectMetadata{RelativeKey: key, Size: size, Digest: digest}
}

func TestCompare(t *testing.T) {
	src := map[string]objtypes.ObjectMetadata{
		"same":        meta("same", 3, "d1"),
		"only-src":    meta("only-src", 1, ""),
		"size":        meta("size", 5, "x"),
		"content":     meta("content", 4, "aaa"),
		"one-digest":  meta("one-digest", 4, "aaa"),
		"same-digest": meta("same-digest", 4, "bbb"),
	}
	dst := map[string]objtypes.ObjectMetadata{
		"same":        meta("same", 3, "d1"),
		"only-dst":    meta("only-dst", 2, ""),
		"size":        meta("size", 6, "x"),
		"content":     meta("content", 4, "ccc"),
		"one-digest":  meta("one-digest", 4, ""),
		"same-digest": meta("same-digest", 4, "bbb"),
	}

	t.Run("with content", func(t *testing.T) {
		diffs := Compare(src, dst, true)
		require.Len(t, diffs, 4)
		assert.Equal(t, objtypes.Difference{
			Key: "content", Kind: objtypes.ContentDiffers,
			SourceSize: 4, DestSize: 4, SourceDigest: "aaa", DestDigest: "ccc",
		}, diffs[0])
		assert.Equal(t, "only-dst", diffs[1].Key)
		assert.Equal(t, objtypes.OnlyInDest, diffs[1].Kind)
		assert.Equal(t, int64(2), diffs[1].DestSize)
		assert.Equal(t, "only-src", diffs[2].Key)
		assert.Equal(t, objtypes.OnlyInSource, diffs[2].Kind)
		assert.Equal(t, objtypes.Difference{
			Key: "size", Kind: objtypes.SizeDiffers, SourceSize: 5, DestSize: 6,
		}, diffs[3])
	})

	t.Run("without content", func(t *testing.T) {
		diffs := Compare(src, dst, false)
		keys := make([]string, 0, len(diffs))
		for _, d := range diffs {
			keys = append(keys, d.Key)
		}
		assert.Equal(t, []string{"only-dst", "only-src", "size"}, keys)
	})
}

func TestCompare_Symmetry(t *testing.T) {
	a := map[string]objtypes.ObjectMetadata{
		"x": meta("x", 1, "p"),
		"y": meta("y", 2, "q"),
		"z": meta("z", 3, "r"),
	}
	b := map[string]objtypes.ObjectMetadata{
		"y": meta("y", 20, "q"),
		"z": meta("z", 3, "s"),
		"w": meta("w", 4, ""),
	}

	forward := Compare(a, b, true)
	backward := Compare(b, a, true)
	require.Len(t, backward, len(forward))

	swap := map[objtypes.DifferenceKind]objtypes.DifferenceKind{
		objtypes.OnlyInSource:   objtypes.OnlyInDest,
		objtypes.OnlyInDest:     objtypes.OnlyInSource,
		objtypes.SizeDiffers:    objtypes.SizeDiffers,
		objtypes.ContentDiffers: objtypes.ContentDiffers,
	}
	for i := range forward {
		assert.Equal(t, forward[i].Key, backward[i].Key)
		assert.Equal(t, swap[forward[i].Kind], backward[i].Kind)
		assert.Equal(t, forward[i].SourceSize, backward[i].DestSize)
		assert.Equal(t, forward[i].DestSize, backward[i].SourceSize)
	}
}

func TestCompare_Empty(t *testing.T) {
	assert.Empty(t, Compare(nil, nil, true))
}

func TestSummarize(t *testing.T) {
	sum := Summarize([]objtypes.Difference{
		{Kind: objtypes.OnlyInSource},
		{Kind: objtypes.OnlyInSource},
		{Kind: objtypes.OnlyInDest},
		{Kind: objtypes.SizeDiffers},
		{Kind: objtypes.ContentDiffers},
	})
	assert.Equal(t, objtypes.DiffSummary{
		OnlyInSource: 2, OnlyInDest: 1, SizeDiffers: 1, ContentDiffers: 1, Total: 5,
	}, sum)
}

type fixture struct {
	backends backend.Set
	fake     *testutil.FakeS3
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	fsys := billyfs.NewInMemoryFS()
	for path, content := range files {
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
	}
	fake := testutil.NewFakeS3("bucket")
	return &fixture{
		backends: backend.Set{Local: local.New(fsys), Remote: remote.New(fake)},
		fake:     fake,
	}
}

func TestComparator_Collect(t *testing.T) {
	f := newFixture(t, map[string]string{
		"/tree/a.txt":   "alpha",
		"/tree/b/c.txt": "charlie",
	})
	c := New(f.backends)

	got, err := c.Collect(context.Background(), location.Local("/tree"), nil, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]objtypes.ObjectMetadata{
		"a.txt":   meta("a.txt", 5, ""),
		"b/c.txt": meta("b/c.txt", 7, ""),
	}, got)

	got, err = c.Collect(context.Background(), location.Local("/tree"), nil, true)
	require.NoError(t, err)
	assert.Equal(t, md5hex("alpha"), got["a.txt"].Digest)
}

func TestComparator_CollectFiltered(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.Seed("bucket", "p/a.txt", []byte("a"))
	f.fake.Seed("bucket", "p/b.log", []byte("b"))
	filter, err := scanner.NewFilter([]string{"*.txt"}, nil)
	require.NoError(t, err)

	got, err := New(f.backends).Collect(context.Background(), location.Remote("bucket", "p/"), filter, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, md5hex("a"), got["a.txt"].Digest)
}

func TestComparator_DiffAfterCopyIsEmpty(t *testing.T) {
	f := newFixture(t, map[string]string{
		"/src/one.txt":       "one",
		"/src/two/three.txt": "three",
		"/src/empty":         "",
	})
	m := manager.NewManager(f.backends)
	_, err := m.CopyTree(context.Background(),
		location.Local("/src"), location.Remote("bucket", "dst"), nil, objtypes.ChecksumOptions{})
	require.NoError(t, err)

	res, err := New(f.backends).Diff(context.Background(),
		location.Local("/src"), location.Remote("bucket", "dst"), nil, true)
	require.NoError(t, err)
	assert.Empty(t, res.Differences)
	assert.Equal(t, 3, res.SourceCount)
	assert.Equal(t, 3, res.DestCount)
	assert.Equal(t, 0, res.Summary.Total)
}

func TestComparator_DiffContentChange(t *testing.T) {
	f := newFixture(t, map[string]string{"/src/f.txt": "abcd"})
	f.fake.Seed("bucket", "dst/f.txt", []byte("abce"))

	d := New(f.backends)
	res, err := d.Diff(context.Background(), location.Local("/src"), location.Remote("bucket", "dst"), nil, true)
	require.NoError(t, err)
	require.Len(t, res.Differences, 1)
	assert.Equal(t, objtypes.ContentDiffers, res.Differences[0].Kind)

	res, err = d.Diff(context.Background(), location.Local("/src"), location.Remote("bucket", "dst"), nil, false)
	require.NoError(t, err)
	assert.Empty(t, res.Differences)
}

func TestComparator_MultipartDestinationSkipsContentCheck(t *testing.T) {
	f := newFixture(t, map[string]string{"/src/big": "0123456789"})
	uploader := multipart.NewUploader(f.backends.Remote, multipart.WithPartSize(4))
	m := manager.NewManager(f.backends, manager.WithMultipartThreshold(4), manager.WithUploader(uploader))
	_, err := m.CopyOne(context.Background(),
		location.Local("/src/big"), location.Remote("bucket", "dst/big"), objtypes.ChecksumOptions{})
	require.NoError(t, err)

	// Same size, different content, but the multipart ETag carries no digest.
	f.fake.Seed("bucket", "dst/other", []byte("x"))
	require.NoError(t, f.backends.Local.(*local.Backend).Filesystem().WriteFile("/src/other", []byte("y"), 0o644))

	res, err := New(f.backends).Diff(context.Background(),
		location.Local("/src"), location.Remote("bucket", "dst"), nil, true)
	require.NoError(t, err)
	require.Len(t, res.Differences, 1)
	assert.Equal(t, "other", res.Differences[0].Key)
	assert.Equal(t, objtypes.ContentDiffers, res.Differences[0].Kind)
}
