package testutil

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/s3api"
)

// FakeObject is one stored object.
type FakeObject struct {
	Data         []byte
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

type fakeUpload struct {
	bucket string
	key    string
	parts  map[int32][]byte
	etags  map[int32]string
}

// FakeS3 is an in-memory S3API with real pagination, byte ranges, common
// prefixes and multipart semantics. It records every call by operation name.
type FakeS3 struct {
	mu      sync.Mutex
	buckets map[string]map[string]*FakeObject
	created map[string]time.Time
	uploads map[string]*fakeUpload

	// Calls lists operation names in call order
	Calls []string

	// Aborted lists the upload ids that were aborted
	Aborted []string

	// CompletedParts holds the part numbers sent to each CompleteMultipartUpload
	CompletedParts [][]int32

	failures map[string]failure
	counts   map[string]int
}

type failure struct {
	after int
	err   error
}

// NewFakeS3 creates a fake with the named (empty) buckets.
func NewFakeS3(buckets ...string) *FakeS3 {
	f := &FakeS3{
		buckets:  make(map[string]map[string]*FakeObject),
		created:  make(map[string]time.Time),
		uploads:  make(map[string]*fakeUpload),
		failures: make(map[string]failure),
		counts:   make(map[string]int),
	}
	for _, b := range buckets {
		f.AddBucket(b)
	}
	return f
}

// AddBucket creates an empty bucket.
func (f *FakeS3) AddBucket(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[name]; !ok {
		f.buckets[name] = make(map[string]*FakeObject)
		f.created[name] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
}

// Seed stores an object directly, bypassing call recording.
func (f *FakeS3) Seed(bucket, key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[bucket]; !ok {
		f.buckets[bucket] = make(map[string]*FakeObject)
		f.created[bucket] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	f.buckets[bucket][key] = newFakeObject(data, "")
}

// Object returns a stored object's content.
func (f *FakeS3) Object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.buckets[bucket][key]
	if !ok {
		return nil, false
	}
	return obj.Data, true
}

// Get returns the stored object record.
func (f *FakeS3) Get(bucket, key string) (*FakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.buckets[bucket][key]
	return obj, ok
}

// Keys returns the sorted keys of a bucket.
func (f *FakeS3) Keys(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedKeys(f.buckets[bucket])
}

// OpenUploads returns the number of multipart uploads neither completed nor aborted.
func (f *FakeS3) OpenUploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

// CallCount returns how many times op was called.
func (f *FakeS3) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == op {
			n++
		}
	}
	return n
}

// FailAfter makes op fail with err once it has succeeded n times.
func (f *FakeS3) FailAfter(op string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = failure{after: n, err: err}
}

// record must be called with mu held.
func (f *FakeS3) record(op string) error {
	f.Calls = append(f.Calls, op)
	if fl, ok := f.failures[op]; ok && f.counts[op] >= fl.after {
		return fl.err
	}
	f.counts[op]++
	return nil
}

func newFakeObject(data []byte, contentType string) *FakeObject {
	sum := md5.Sum(data)
	return &FakeObject{
		Data:         data,
		ETag:         `"` + hex.EncodeToString(sum[:]) + `"`,
		ContentType:  contentType,
		LastModified: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func noSuchBucket(bucket string) error {
	return &types.NoSuchBucket{Message: aws.String("bucket " + bucket + " does not exist")}
}

func noSuchKey(key string) error {
	return &types.NoSuchKey{Message: aws.String("key " + key + " does not exist")}
}

// PutObject implements s3api.S3API.
func (f *FakeS3) PutObject(
	_ context.Context,
	params *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	var data []byte
	if params.Body != nil {
		var err error
		if data, err = io.ReadAll(params.Body); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PutObject"); err != nil {
		return nil, err
	}

	bucket := f.buckets[aws.ToString(params.Bucket)]
	if bucket == nil {
		return nil, noSuchBucket(aws.ToString(params.Bucket))
	}
	obj := newFakeObject(data, aws.ToString(params.ContentType))
	obj.Metadata = params.Metadata
	bucket[aws.ToString(params.Key)] = obj

	return &s3.PutObjectOutput{ETag: aws.String(obj.ETag)}, nil
}

// GetObject implements s3api.S3API, honouring "bytes=s-e" and "bytes=s-" ranges.
func (f *FakeS3) GetObject(
	_ context.Context,
	params *s3.GetObjectInput,
	_ ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetObject"); err != nil {
		return nil, err
	}

	obj, err := f.lookup(aws.ToString(params.Bucket), aws.ToString(params.Key), false)
	if err != nil {
		return nil, err
	}

	data := obj.Data
	if r := aws.ToString(params.Range); r != "" {
		data, err = sliceRange(obj.Data, r)
		if err != nil {
			return nil, err
		}
	}

	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(obj.ContentType),
		ETag:          aws.String(obj.ETag),
		LastModified:  aws.Time(obj.LastModified),
	}, nil
}

func sliceRange(data []byte, header string) ([]byte, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "InvalidArgument", Message: "bad range " + header}
	}
	startStr, endStr, _ := strings.Cut(spec, "-")
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return nil, &smithy.GenericAPIError{Code: "InvalidArgument", Message: "bad range " + header}
	}
	size := int64(len(data))
	if start >= size && size > 0 {
		return nil, &smithy.GenericAPIError{Code: "InvalidRange", Message: "range not satisfiable"}
	}
	end := size - 1
	if endStr != "" {
		if end, err = strconv.ParseInt(endStr, 10, 64); err != nil {
			return nil, &smithy.GenericAPIError{Code: "InvalidArgument", Message: "bad range " + header}
		}
		if end >= size {
			end = size - 1
		}
	}
	if start > end {
		return []byte{}, nil
	}
	return data[start : end+1], nil
}

// HeadObject implements s3api.S3API.
func (f *FakeS3) HeadObject(
	_ context.Context,
	params *s3.HeadObjectInput,
	_ ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("HeadObject"); err != nil {
		return nil, err
	}

	obj, err := f.lookup(aws.ToString(params.Bucket), aws.ToString(params.Key), true)
	if err != nil {
		return nil, err
	}

	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.Data))),
		ContentType:   aws.String(obj.ContentType),
		ETag:          aws.String(obj.ETag),
		LastModified:  aws.Time(obj.LastModified),
		Metadata:      obj.Metadata,
		StorageClass:  types.StorageClassStandard,
	}, nil
}

// lookup must be called with mu held. HEAD requests report a bare NotFound.
func (f *FakeS3) lookup(bucket, key string, head bool) (*FakeObject, error) {
	objects, ok := f.buckets[bucket]
	if !ok {
		if head {
			return nil, &types.NotFound{Message: aws.String("Not Found")}
		}
		return nil, noSuchBucket(bucket)
	}
	obj, ok := objects[key]
	if !ok {
		if head {
			return nil, &types.NotFound{Message: aws.String("Not Found")}
		}
		return nil, noSuchKey(key)
	}
	return obj, nil
}

// DeleteObject implements s3api.S3API. Deleting a missing key succeeds.
func (f *FakeS3) DeleteObject(
	_ context.Context,
	params *s3.DeleteObjectInput,
	_ ...func(*s3.Options),
) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteObject"); err != nil {
		return nil, err
	}

	objects, ok := f.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, noSuchBucket(aws.ToString(params.Bucket))
	}
	delete(objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// ListObjectsV2 implements s3api.S3API. The continuation token is the last
// key or prefix returned on the previous page.
func (f *FakeS3) ListObjectsV2(
	_ context.Context,
	params *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListObjectsV2"); err != nil {
		return nil, err
	}

	objects, ok := f.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, noSuchBucket(aws.ToString(params.Bucket))
	}

	prefix := aws.ToString(params.Prefix)
	delimiter := aws.ToString(params.Delimiter)
	after := aws.ToString(params.ContinuationToken)
	maxKeys := int(aws.ToInt32(params.MaxKeys))
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	type item struct {
		name     string
		isPrefix bool
	}
	var items []item
	seen := make(map[string]bool)
	for _, key := range sortedKeys(objects) {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if delimiter != "" {
			rest := key[len(prefix):]
			if i := strings.Index(rest, delimiter); i >= 0 {
				cp := prefix + rest[:i+len(delimiter)]
				if !seen[cp] {
					seen[cp] = true
					items = append(items, item{name: cp, isPrefix: true})
				}
				continue
			}
		}
		items = append(items, item{name: key})
	}

	out := &s3.ListObjectsV2Output{
		Name:   params.Bucket,
		Prefix: params.Prefix,
	}
	count := 0
	for _, it := range items {
		if after != "" && it.name <= after {
			continue
		}
		if count == maxKeys {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = aws.String(lastName(out))
			break
		}
		if it.isPrefix {
			out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(it.name)})
		} else {
			obj := objects[it.name]
			out.Contents = append(out.Contents, types.Object{
				Key:          aws.String(it.name),
				Size:         aws.Int64(int64(len(obj.Data))),
				ETag:         aws.String(obj.ETag),
				LastModified: aws.Time(obj.LastModified),
				StorageClass: types.ObjectStorageClassStandard,
			})
		}
		count++
	}
	if out.IsTruncated == nil {
		out.IsTruncated = aws.Bool(false)
	}
	out.KeyCount = aws.Int32(int32(count))
	return out, nil
}

func lastName(out *s3.ListObjectsV2Output) string {
	last := ""
	for _, o := range out.Contents {
		if k := aws.ToString(o.Key); k > last {
			last = k
		}
	}
	for _, p := range out.CommonPrefixes {
		if k := aws.ToString(p.Prefix); k > last {
			last = k
		}
	}
	return last
}

// CopyObject implements s3api.S3API. CopySource is "bucket/key", URL-escaped.
func (f *FakeS3) CopyObject(
	_ context.Context,
	params *s3.CopyObjectInput,
	_ ...func(*s3.Options),
) (*s3.CopyObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CopyObject"); err != nil {
		return nil, err
	}

	source, err := url.PathUnescape(aws.ToString(params.CopySource))
	if err != nil {
		return nil, err
	}
	srcBucket, srcKey, _ := strings.Cut(strings.TrimPrefix(source, "/"), "/")
	src, err := f.lookup(srcBucket, srcKey, false)
	if err != nil {
		return nil, err
	}

	dst := f.buckets[aws.ToString(params.Bucket)]
	if dst == nil {
		return nil, noSuchBucket(aws.ToString(params.Bucket))
	}
	copied := newFakeObject(append([]byte(nil), src.Data...), src.ContentType)
	copied.ETag = src.ETag
	dst[aws.ToString(params.Key)] = copied

	return &s3.CopyObjectOutput{}, nil
}

// CreateMultipartUpload implements s3api.S3API.
func (f *FakeS3) CreateMultipartUpload(
	_ context.Context,
	params *s3.CreateMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.CreateMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateMultipartUpload"); err != nil {
		return nil, err
	}

	if _, ok := f.buckets[aws.ToString(params.Bucket)]; !ok {
		return nil, noSuchBucket(aws.ToString(params.Bucket))
	}

	id := uuid.NewString()
	f.uploads[id] = &fakeUpload{
		bucket: aws.ToString(params.Bucket),
		key:    aws.ToString(params.Key),
		parts:  make(map[int32][]byte),
		etags:  make(map[int32]string),
	}
	return &s3.CreateMultipartUploadOutput{
		Bucket:   params.Bucket,
		Key:      params.Key,
		UploadId: aws.String(id),
	}, nil
}

// UploadPart implements s3api.S3API.
func (f *FakeS3) UploadPart(
	_ context.Context,
	params *s3.UploadPartInput,
	_ ...func(*s3.Options),
) (*s3.UploadPartOutput, error) {
	var data []byte
	if params.Body != nil {
		var err error
		if data, err = io.ReadAll(params.Body); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UploadPart"); err != nil {
		return nil, err
	}

	up, ok := f.uploads[aws.ToString(params.UploadId)]
	if !ok {
		return nil, &types.NoSuchUpload{Message: aws.String("no such upload")}
	}
	n := aws.ToInt32(params.PartNumber)
	sum := md5.Sum(data)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`
	up.parts[n] = data
	up.etags[n] = etag

	return &s3.UploadPartOutput{ETag: aws.String(etag)}, nil
}

// CompleteMultipartUpload implements s3api.S3API. Parts must be ascending
// and match the uploaded ETags.
func (f *FakeS3) CompleteMultipartUpload(
	_ context.Context,
	params *s3.CompleteMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CompleteMultipartUpload"); err != nil {
		return nil, err
	}

	id := aws.ToString(params.UploadId)
	up, ok := f.uploads[id]
	if !ok {
		return nil, &types.NoSuchUpload{Message: aws.String("no such upload")}
	}

	var parts []types.CompletedPart
	if params.MultipartUpload != nil {
		parts = params.MultipartUpload.Parts
	}
	if len(parts) == 0 {
		return nil, &smithy.GenericAPIError{Code: "MalformedXML", Message: "no parts"}
	}

	numbers := make([]int32, 0, len(parts))
	var body bytes.Buffer
	var last int32
	for _, p := range parts {
		n := aws.ToInt32(p.PartNumber)
		if n <= last {
			return nil, &smithy.GenericAPIError{Code: "InvalidPartOrder", Message: "parts out of order"}
		}
		if up.etags[n] != aws.ToString(p.ETag) {
			return nil, &smithy.GenericAPIError{Code: "InvalidPart", Message: fmt.Sprintf("part %d etag mismatch", n)}
		}
		last = n
		numbers = append(numbers, n)
		body.Write(up.parts[n])
	}
	f.CompletedParts = append(f.CompletedParts, numbers)

	obj := newFakeObject(body.Bytes(), "")
	sum := md5.Sum(body.Bytes())
	obj.ETag = fmt.Sprintf(`"%s-%d"`, hex.EncodeToString(sum[:]), len(parts))
	f.buckets[up.bucket][up.key] = obj
	delete(f.uploads, id)

	return &s3.CompleteMultipartUploadOutput{ETag: aws.String(obj.ETag)}, nil
}

// AbortMultipartUpload implements s3api.S3API.
func (f *FakeS3) AbortMultipartUpload(
	_ context.Context,
	params *s3.AbortMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AbortMultipartUpload"); err != nil {
		return nil, err
	}

	id := aws.ToString(params.UploadId)
	delete(f.uploads, id)
	f.Aborted = append(f.Aborted, id)
	return &s3.AbortMultipartUploadOutput{}, nil
}

// ListBuckets implements s3api.S3API.
func (f *FakeS3) ListBuckets(
	_ context.Context,
	_ *s3.ListBucketsInput,
	_ ...func(*s3.Options),
) (*s3.ListBucketsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListBuckets"); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(f.buckets))
	for name := range f.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &s3.ListBucketsOutput{}
	for _, name := range names {
		out.Buckets = append(out.Buckets, types.Bucket{
			Name:         aws.String(name),
			CreationDate: aws.Time(f.created[name]),
		})
	}
	return out, nil
}

// HeadBucket implements s3api.S3API.
func (f *FakeS3) HeadBucket(
	_ context.Context,
	params *s3.HeadBucketInput,
	_ ...func(*s3.Options),
) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("HeadBucket"); err != nil {
		return nil, err
	}

	if _, ok := f.buckets[aws.ToString(params.Bucket)]; !ok {
		return nil, &types.NotFound{Message: aws.String("Not Found")}
	}
	return &s3.HeadBucketOutput{BucketRegion: aws.String("us-east-1")}, nil
}

func sortedKeys(objects map[string]*FakeObject) []string {
	keys := make([]string, 0, len(objects))
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ s3api.S3API = (*FakeS3)(nil)
