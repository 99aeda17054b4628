package testutil

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeS3_ListPagination(t *testing.T) {
	f := NewFakeS3("b")
	for _, k := range []string{"a/1", "a/2", "b/1", "c"} {
		f.Seed("b", k, []byte(k))
	}
	ctx := context.Background()

	var keys []string
	var token *string
	pages := 0
	for {
		out, err := f.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String("b"),
			MaxKeys:           aws.Int32(3),
			ContinuationToken: token,
		})
		require.NoError(t, err)
		pages++
		for _, o := range out.Contents {
			keys = append(keys, aws.ToString(o.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	assert.Equal(t, 2, pages)
	assert.Equal(t, []string{"a/1", "a/2", "b/1", "c"}, keys)
}

func TestFakeS3_ListDelimiter(t *testing.T) {
	f := NewFakeS3("b")
	for _, k := range []string{"p/a/1", "p/a/2", "p/x", "q"} {
		f.Seed("b", k, []byte(k))
	}

	out, err := f.ListObjectsV2(context.Background(), &s3.ListObjectsV2Input{
		Bucket:    aws.String("b"),
		Prefix:    aws.String("p/"),
		Delimiter: aws.String("/"),
	})
	require.NoError(t, err)
	require.Len(t, out.CommonPrefixes, 1)
	assert.Equal(t, "p/a/", aws.ToString(out.CommonPrefixes[0].Prefix))
	require.Len(t, out.Contents, 1)
	assert.Equal(t, "p/x", aws.ToString(out.Contents[0].Key))
}

func TestFakeS3_GetRange(t *testing.T) {
	f := NewFakeS3("b")
	f.Seed("b", "k", []byte("0123456789"))

	out, err := f.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String("b"),
		Key:    aws.String("k"),
		Range:  aws.String("bytes=3-5"),
	})
	require.NoError(t, err)
	data, err := io.ReadAll(out.Body)
	require.NoError(t, err)
	assert.Equal(t, "345", string(data))
}

func TestFakeS3_FailAfter(t *testing.T) {
	f := NewFakeS3("b")
	f.FailAfter("PutObject", 1, assert.AnError)
	ctx := context.Background()

	_, err := f.PutObject(ctx, &s3.PutObjectInput{Bucket: aws.String("b"), Key: aws.String("1")})
	require.NoError(t, err)
	_, err = f.PutObject(ctx, &s3.PutObjectInput{Bucket: aws.String("b"), Key: aws.String("2")})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, f.CallCount("PutObject"))
}

func TestStubS3_Fallback(t *testing.T) {
	fake := NewFakeS3("b")
	fake.Seed("b", "k", []byte("data"))
	stub := &StubS3{
		Fallback: fake,
		PutObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, assert.AnError
		},
	}
	ctx := context.Background()

	_, err := stub.PutObject(ctx, &s3.PutObjectInput{Bucket: aws.String("b"), Key: aws.String("new")})
	assert.ErrorIs(t, err, assert.AnError)
	_, ok := fake.Object("b", "new")
	assert.False(t, ok)

	out, err := stub.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String("b"), Key: aws.String("k")})
	require.NoError(t, err)
	assert.Equal(t, int64(4), aws.ToInt64(out.ContentLength))

	assert.Equal(t, []string{"PutObject", "HeadObject"}, stub.Calls())

	empty := &StubS3{}
	got, err := empty.ListBuckets(ctx, &s3.ListBucketsInput{})
	require.NoError(t, err)
	assert.Empty(t, got.Buckets)
}
