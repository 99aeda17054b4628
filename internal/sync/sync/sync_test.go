package sync

import (
	"context"
	"strings"
	"testing"

	billyfs "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend/local"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend/remote"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/comparator"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/transfer/manager"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

type fixture struct {
	fs   *billyfs.FS
	fake *testutil.FakeS3
	sync *Manager
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	fsys := billyfs.NewInMemoryFS()
	for path, content := range files {
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
	}
	fake := testutil.NewFakeS3("bucket", "mirror")
	backends := backend.Set{Local: local.New(fsys), Remote: remote.New(fake)}
	sc := scanner.NewScanner(backends)
	return &fixture{
		fs:   fsys,
		fake: fake,
		sync: NewManager(sc, comparator.New(backends, comparator.WithScanner(sc)), manager.NewManager(backends)),
	}
}

func TestManager_SyncTransfersMissingAndResized(t *testing.T) {
	f := newFixture(t, map[string]string{
		"/src/a": strings.Repeat("a", 10),
		"/src/b": strings.Repeat("b", 20),
	})
	f.fake.Seed("bucket", "dst/a", []byte(strings.Repeat("x", 10)))

	res, err := f.sync.Sync(context.Background(), &Config{
		Source:      location.Local("/src"),
		Destination: location.Remote("bucket", "dst"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.FilesTransferred)
	assert.Equal(t, 1, res.FilesSkipped)
	assert.Equal(t, int64(20), res.BytesTransferred)
	assert.Equal(t, 1, f.fake.CallCount("PutObject"))

	// Same size means skip even though the content differs.
	data, _ := f.fake.Object("bucket", "dst/a")
	assert.Equal(t, strings.Repeat("x", 10), string(data))
	data, _ = f.fake.Object("bucket", "dst/b")
	assert.Equal(t, strings.Repeat("b", 20), string(data))
}

func TestManager_SyncSizeChangeTransfers(t *testing.T) {
	f := newFixture(t, map[string]string{"/src/a": "new content"})
	f.fake.Seed("bucket", "a", []byte("old"))

	res, err := f.sync.Sync(context.Background(), &Config{
		Source:      location.Local("/src"),
		Destination: location.Remote("bucket", ""),
	})
	require.NoError(t, err)
	require.Len(t, res.Operations, 1)
	assert.Equal(t, objtypes.SyncTransfer, res.Operations[0].Type)
	assert.Equal(t, "size changed", res.Operations[0].Reason)
}

func TestManager_SyncNeverDeletes(t *testing.T) {
	f := newFixture(t, map[string]string{"/src/a": "a"})
	f.fake.Seed("bucket", "dst/a", []byte("a"))
	f.fake.Seed("bucket", "dst/extra", []byte("extra"))

	_, err := f.sync.Sync(context.Background(), &Config{
		Source:      location.Local("/src"),
		Destination: location.Remote("bucket", "dst"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dst/a", "dst/extra"}, f.fake.Keys("bucket"))
	assert.Equal(t, 0, f.fake.CallCount("DeleteObject"))
}

func TestManager_SyncDryRun(t *testing.T) {
	f := newFixture(t, map[string]string{"/src/a": "a", "/src/b": "b"})
	f.fake.Seed("bucket", "b", []byte("b"))

	res, err := f.sync.Sync(context.Background(), &Config{
		Source:      location.Local("/src"),
		Destination: location.Remote("bucket", ""),
		DryRun:      true,
	})
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Equal(t, 0, res.FilesTransferred)
	assert.Equal(t, 1, res.FilesSkipped)
	require.Len(t, res.Operations, 2)
	assert.Equal(t, objtypes.SyncTransfer, res.Operations[0].Type)
	assert.Equal(t, "s3://bucket/a", res.Operations[0].Destination)
	assert.Equal(t, objtypes.SyncSkip, res.Operations[1].Type)
	assert.Equal(t, 0, f.fake.CallCount("PutObject"))
}

func TestManager_SyncRemoteToMissingLocalDirectory(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.Seed("bucket", "p/x", []byte("xx"))
	f.fake.Seed("bucket", "p/y/z", []byte("zzz"))

	res, err := f.sync.Sync(context.Background(), &Config{
		Source:      location.Remote("bucket", "p/"),
		Destination: location.Local("/restore"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesTransferred)

	data, err := f.fs.ReadFile("/restore/y/z")
	require.NoError(t, err)
	assert.Equal(t, "zzz", string(data))

	// A second run finds everything in place.
	res, err = f.sync.Sync(context.Background(), &Config{
		Source:      location.Remote("bucket", "p/"),
		Destination: location.Local("/restore"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.FilesTransferred)
	assert.Equal(t, 2, res.FilesSkipped)
}

func TestManager_SyncSkipsKeysEscapingLocalDestination(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.Seed("bucket", "data/../../escaped.txt", []byte("evil"))
	f.fake.Seed("bucket", "data/keep.txt", []byte("keep"))

	for _, dryRun := range []bool{true, false} {
		res, err := f.sync.Sync(context.Background(), &Config{
			Source:      location.Remote("bucket", "data"),
			Destination: location.Local("/home/user/dst"),
			DryRun:      dryRun,
		})
		require.NoError(t, err)
		require.Len(t, res.Operations, 1)
		assert.Equal(t, "/home/user/dst/keep.txt", res.Operations[0].Destination)
	}

	data, err := f.fs.ReadFile("/home/user/dst/keep.txt")
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	exists, err := f.fs.Exists("/home/escaped.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestManager_SyncRemoteToRemote(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.Seed("bucket", "a.txt", []byte("a"))
	f.fake.Seed("bucket", "b.log", []byte("b"))
	filter, err := scanner.NewFilter(nil, []string{"*.log"})
	require.NoError(t, err)

	res, err := f.sync.Sync(context.Background(), &Config{
		Source:      location.Remote("bucket", ""),
		Destination: location.Remote("mirror", ""),
		Filter:      filter,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesTransferred)
	assert.Equal(t, []string{"a.txt"}, f.fake.Keys("mirror"))
	assert.Equal(t, 1, f.fake.CallCount("CopyObject"))
}

func TestManager_SyncLocalToLocal(t *testing.T) {
	f := newFixture(t, map[string]string{"/src/a": "a"})

	_, err := f.sync.Sync(context.Background(), &Config{
		Source:      location.Local("/src"),
		Destination: location.Local("/dst"),
	})
	require.ErrorIs(t, err, errors.ErrNotImplemented)
}

func TestManager_SyncMissingBucket(t *testing.T) {
	f := newFixture(t, map[string]string{"/src/a": "a"})

	_, err := f.sync.Sync(context.Background(), &Config{
		Source:      location.Local("/src"),
		Destination: location.Remote("nope", ""),
	})
	require.Error(t, err)
	assert.True(t, errors.IsBucketNotFound(err))
}

func TestManager_SyncStopsOnTransferFailure(t *testing.T) {
	f := newFixture(t, map[string]string{"/src/a": "a", "/src/b": "b"})
	f.fake.FailAfter("PutObject", 0, assert.AnError)

	res, err := f.sync.Sync(context.Background(), &Config{
		Source:      location.Local("/src"),
		Destination: location.Remote("bucket", ""),
	})
	require.ErrorIs(t, err, assert.AnError)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.FilesTransferred)
	assert.Len(t, res.Operations, 1)
}
