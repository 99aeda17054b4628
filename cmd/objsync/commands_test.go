package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	billyfs "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/objsync"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

type cliFixture struct {
	fs   *billyfs.FS
	fake *testutil.FakeS3
}

func newCLIFixture(t *testing.T, files map[string]string) *cliFixture {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ENDPOINT_URL", "")

	fsys := billyfs.NewInMemoryFS()
	for path, content := range files {
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
	}
	return &cliFixture{fs: fsys, fake: testutil.NewFakeS3("bucket")}
}

func (f *cliFixture) factory(ctx context.Context, opts ...objtypes.Option) (*objsync.Client, error) {
	return objsync.NewWithClient(f.fake, append(opts, objsync.WithFilesystem(f.fs))...)
}

func (f *cliFixture) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, f.factory)
	return code, stdout.String(), stderr.String()
}

func TestCLI_Copy(t *testing.T) {
	f := newCLIFixture(t, map[string]string{
		"/data/a.txt":       "alpha",
		"/data/sub/b.txt":   "bravo",
		"/data/cache/c.tmp": "cache",
	})

	code, out, _ := f.run(t, "cp", "/data/a.txt", "s3://bucket/in/")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "copy: /data/a.txt -> s3://bucket/in/a.txt")

	code, out, _ = f.run(t, "cp", "--recursive", "--exclude", "cache/", "/data", "s3://bucket/tree")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Copied 2 objects")
	assert.ElementsMatch(t, []string{"in/a.txt", "tree/a.txt", "tree/sub/b.txt"}, f.fake.Keys("bucket"))
}

func TestCLI_MultipartSettingsFromConfig(t *testing.T) {
	f := newCLIFixture(t, map[string]string{"/big.bin": strings.Repeat("z", 25)})
	t.Setenv("AWS_CONFIG_FILE", writeConfig(t, "[s3]\nmultipart_threshold = 10\nmultipart_chunksize = 10\n"))

	code, _, stderr := f.run(t, "cp", "/big.bin", "s3://bucket/big.bin")
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, [][]int32{{1, 2, 3}}, f.fake.CompletedParts)
}

func TestCLI_SyncAndDiff(t *testing.T) {
	f := newCLIFixture(t, map[string]string{
		"/site/index.html": "<html>",
		"/site/app.js":     "js",
	})
	f.fake.Seed("bucket", "site/app.js", []byte("js"))

	code, out, _ := f.run(t, "diff", "/site", "s3://bucket/site")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Only in source (1 file):\n  + index.html\n")

	code, out, _ = f.run(t, "sync", "--dryrun", "/site", "s3://bucket/site")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Dry run: 1 to transfer, 1 skipped (unchanged)")
	_, ok := f.fake.Object("bucket", "site/index.html")
	assert.False(t, ok)

	code, out, _ = f.run(t, "sync", "/site", "s3://bucket/site")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Sync complete: 1 transferred, 1 skipped (unchanged)")

	code, out, _ = f.run(t, "diff", "--compare-content", "/site", "s3://bucket/site")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "No differences found between:")
}

func TestCLI_RemoveAndMove(t *testing.T) {
	f := newCLIFixture(t, nil)
	f.fake.Seed("bucket", "logs/a.log", []byte("a"))
	f.fake.Seed("bucket", "logs/b.txt", []byte("b"))
	f.fake.Seed("bucket", "keep/c.txt", []byte("c"))

	code, out, _ := f.run(t, "rm", "--recursive", "--include", "*.log", "s3://bucket/logs/")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "delete: s3://bucket/logs/a.log\n")
	assert.Contains(t, out, "Deleted 1 object\n")

	code, out, _ = f.run(t, "mv", "s3://bucket/keep/c.txt", "s3://bucket/moved/c.txt")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Removed 1 source object")
	assert.ElementsMatch(t, []string{"logs/b.txt", "moved/c.txt"}, f.fake.Keys("bucket"))

	code, _, stderr := f.run(t, "rm", "/local/file")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "objsync: ")
}

func TestCLI_ListAndStat(t *testing.T) {
	f := newCLIFixture(t, map[string]string{"/notes.txt": "hello world\n"})
	f.fake.Seed("bucket", "docs/a.md", []byte("12345"))
	f.fake.Seed("bucket", "top.txt", []byte("1"))

	code, out, _ := f.run(t, "ls")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, " bucket\n")
	assert.Contains(t, out, "Total buckets: 1")

	code, out, _ = f.run(t, "ls", "s3://bucket/")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "PRE docs/\n")
	assert.Contains(t, out, "top.txt\n")
	assert.Contains(t, out, "Total objects: 1\n")

	code, out, _ = f.run(t, "ls", "--recursive", "s3://bucket")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "docs/a.md\n")
	assert.Contains(t, out, "Total objects: 2\n")

	code, out, _ = f.run(t, "stat", "--checksum-algorithm", "sha256", "/notes.txt")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "ETag      : 6f5902ac237024bdd0c176cb93063dc4\n")
	assert.Contains(t, out, "SHA256    : qUiQTy8PR5uPgZdpSzAYSw0u0cHNKh7A+4XSmaGSpEc=\n")

	code, out, _ = f.run(t, "stat", "s3://bucket")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Type      : bucket\n")
}

func TestCLI_Cat(t *testing.T) {
	f := newCLIFixture(t, nil)
	f.fake.Seed("bucket", "abc.txt", []byte("abcdefghij"))

	code, out, _ := f.run(t, "cat", "s3://bucket/abc.txt")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "abcdefghij", out)

	code, out, _ = f.run(t, "cat", "--range", "2-4", "s3://bucket/abc.txt")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "cde", out)

	code, out, _ = f.run(t, "cat", "--offset", "0", "--size", "2", "s3://bucket/abc.txt")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "ab", out)

	code, _, stderr := f.run(t, "cat", "--range", "1-2", "--offset", "1", "s3://bucket/abc.txt")
	assert.Equal(t, exitFailure, code)
	assert.NotEmpty(t, stderr)

	code, out, stderr = f.run(t, "cat", "--range=-4", "s3://bucket/abc.txt")
	assert.Equal(t, exitFailure, code)
	assert.Empty(t, out)
	assert.NotEmpty(t, stderr)
}

func TestCLI_Cmp(t *testing.T) {
	f := newCLIFixture(t, map[string]string{
		"/a.txt":     "line one\nline two\n",
		"/b.txt":     "line one\nline Two\n",
		"/short.txt": "line",
	})
	f.fake.Seed("bucket", "a.txt", []byte("line one\nline two\n"))

	code, _, stderr := f.run(t, "cmp", "/a.txt", "s3://bucket/a.txt")
	assert.Equal(t, exitOK, code)
	assert.Empty(t, stderr)

	code, _, stderr = f.run(t, "cmp", "/a.txt", "/b.txt")
	assert.Equal(t, exitDiffer, code)
	assert.Equal(t, "/a.txt /b.txt differ: byte 15, line 2\n", stderr)

	code, _, stderr = f.run(t, "cmp", "/a.txt", "/short.txt")
	assert.Equal(t, exitDiffer, code)
	assert.Equal(t, "cmp: EOF on /short.txt\n", stderr)

	code, _, _ = f.run(t, "cmp", "--size", "9", "/a.txt", "/b.txt")
	assert.Equal(t, exitOK, code)

	code, _, stderr = f.run(t, "cmp", "/a.txt", "s3://bucket/missing.txt")
	assert.Equal(t, exitTrouble, code)
	assert.Contains(t, stderr, "objsync: ")
}

func TestCLI_Usage(t *testing.T) {
	f := newCLIFixture(t, nil)

	code, _, stderr := f.run(t, "cp", "only-one-arg")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "accepts 2 arg(s)")

	code, out, _ := f.run(t, "--help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "multipart_threshold")
}
