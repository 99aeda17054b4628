package testutil

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/s3api"
)

// StubS3 overrides single S3 calls in tests. A call without a stub goes to
// Fallback, typically a FakeS3, or returns an empty output when Fallback is nil.
type StubS3 struct {
	Fallback s3api.S3API

	HeadObjectFunc              func(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObjectFunc               func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObjectFunc               func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjectFunc            func(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2Func           func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CopyObjectFunc              func(context.Context, *s3.CopyObjectInput, ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	CreateMultipartUploadFunc   func(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPartFunc              func(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUploadFunc func(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUploadFunc    func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
	ListBucketsFunc             func(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	HeadBucketFunc              func(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error)

	mu    sync.Mutex
	calls []string
}

var _ s3api.S3API = (*StubS3)(nil)

// Calls returns the operations invoked so far, stubbed or not.
func (s *StubS3) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *StubS3) note(op string) {
	s.mu.Lock()
	s.calls = append(s.calls, op)
	s.mu.Unlock()
}

func (s *StubS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	s.note("HeadObject")
	switch {
	case s.HeadObjectFunc != nil:
		return s.HeadObjectFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.HeadObject(ctx, in, opts...)
	}
	return &s3.HeadObjectOutput{}, nil
}

func (s *StubS3) GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	s.note("GetObject")
	switch {
	case s.GetObjectFunc != nil:
		return s.GetObjectFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.GetObject(ctx, in, opts...)
	}
	return &s3.GetObjectOutput{}, nil
}

func (s *StubS3) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.note("PutObject")
	switch {
	case s.PutObjectFunc != nil:
		return s.PutObjectFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.PutObject(ctx, in, opts...)
	}
	return &s3.PutObjectOutput{}, nil
}

func (s *StubS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	s.note("DeleteObject")
	switch {
	case s.DeleteObjectFunc != nil:
		return s.DeleteObjectFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.DeleteObject(ctx, in, opts...)
	}
	return &s3.DeleteObjectOutput{}, nil
}

func (s *StubS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	s.note("ListObjectsV2")
	switch {
	case s.ListObjectsV2Func != nil:
		return s.ListObjectsV2Func(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.ListObjectsV2(ctx, in, opts...)
	}
	return &s3.ListObjectsV2Output{}, nil
}

func (s *StubS3) CopyObject(ctx context.Context, in *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	s.note("CopyObject")
	switch {
	case s.CopyObjectFunc != nil:
		return s.CopyObjectFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.CopyObject(ctx, in, opts...)
	}
	return &s3.CopyObjectOutput{}, nil
}

func (s *StubS3) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	s.note("CreateMultipartUpload")
	switch {
	case s.CreateMultipartUploadFunc != nil:
		return s.CreateMultipartUploadFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.CreateMultipartUpload(ctx, in, opts...)
	}
	return &s3.CreateMultipartUploadOutput{}, nil
}

func (s *StubS3) UploadPart(ctx context.Context, in *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	s.note("UploadPart")
	switch {
	case s.UploadPartFunc != nil:
		return s.UploadPartFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.UploadPart(ctx, in, opts...)
	}
	return &s3.UploadPartOutput{}, nil
}

func (s *StubS3) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	s.note("CompleteMultipartUpload")
	switch {
	case s.CompleteMultipartUploadFunc != nil:
		return s.CompleteMultipartUploadFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.CompleteMultipartUpload(ctx, in, opts...)
	}
	return &s3.CompleteMultipartUploadOutput{}, nil
}

func (s *StubS3) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, opts ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	s.note("AbortMultipartUpload")
	switch {
	case s.AbortMultipartUploadFunc != nil:
		return s.AbortMultipartUploadFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.AbortMultipartUpload(ctx, in, opts...)
	}
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (s *StubS3) ListBuckets(ctx context.Context, in *s3.ListBucketsInput, opts ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	s.note("ListBuckets")
	switch {
	case s.ListBucketsFunc != nil:
		return s.ListBucketsFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.ListBuckets(ctx, in, opts...)
	}
	return &s3.ListBucketsOutput{}, nil
}

func (s *StubS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	s.note("HeadBucket")
	switch {
	case s.HeadBucketFunc != nil:
		return s.HeadBucketFunc(ctx, in, opts...)
	case s.Fallback != nil:
		return s.Fallback.HeadBucket(ctx, in, opts...)
	}
	return &s3.HeadBucketOutput{}, nil
}
