package remote

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/location"
)

// CreateMultipart implements backend.ObjectStore.
func (b *Backend) CreateMultipart(
	ctx context.Context,
	loc location.Location,
	opts backend.PutOptions,
) (*backend.MultipartSession, error) {
	if err := requireKey("createMultipartUpload", loc); err != nil {
		return nil, err
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = detectContentType(loc.Key, nil)
	}

	input := &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		ContentType: aws.String(contentType),
	}
	if opts.ChecksumAlgorithm != "" {
		input.ChecksumAlgorithm = checksumAlgorithm(opts.ChecksumAlgorithm)
	}

	out, err := b.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return nil, errors.NewObjectError("createMultipartUpload", loc.Bucket, loc.Key,
			convertAWSError(err, errors.ErrBucketNotFound))
	}

	return &backend.MultipartSession{
		Location:          loc,
		UploadID:          aws.ToString(out.UploadId),
		ChecksumAlgorithm: opts.ChecksumAlgorithm,
	}, nil
}

// UploadPart implements backend.ObjectStore.
func (b *Backend) UploadPart(
	ctx context.Context,
	session *backend.MultipartSession,
	number int32,
	body []byte,
) (backend.CompletedPart, error) {
	loc := session.Location
	input := &s3.UploadPartInput{
		Bucket:        aws.String(loc.Bucket),
		Key:           aws.String(loc.Key),
		UploadId:      aws.String(session.UploadID),
		PartNumber:    aws.Int32(number),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if session.ChecksumAlgorithm != "" {
		input.ChecksumAlgorithm = checksumAlgorithm(session.ChecksumAlgorithm)
	}

	out, err := b.client.UploadPart(ctx, input)
	if err != nil {
		return backend.CompletedPart{}, errors.NewObjectError("uploadPart", loc.Bucket, loc.Key,
			convertAWSError(err, errors.ErrObjectNotFound))
	}

	return backend.CompletedPart{
		Number:   number,
		ETag:     aws.ToString(out.ETag),
		Checksum: partChecksum(out, session.ChecksumAlgorithm),
	}, nil
}

// CompleteMultipart implements backend.ObjectStore.
func (b *Backend) CompleteMultipart(ctx context.Context, session *backend.MultipartSession) error {
	loc := session.Location

	parts := make([]types.CompletedPart, 0, len(session.Parts))
	for _, p := range session.Parts {
		part := types.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.Number),
		}
		setPartChecksum(&part, session.ChecksumAlgorithm, p.Checksum)
		parts = append(parts, part)
	}

	_, err := b.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(loc.Bucket),
		Key:      aws.String(loc.Key),
		UploadId: aws.String(session.UploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: parts,
		},
	})
	if err != nil {
		return errors.NewObjectError("completeMultipartUpload", loc.Bucket, loc.Key,
			convertAWSError(err, errors.ErrObjectNotFound))
	}
	return nil
}

// AbortMultipart implements backend.ObjectStore.
func (b *Backend) AbortMultipart(ctx context.Context, session *backend.MultipartSession) error {
	loc := session.Location
	_, err := b.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(loc.Bucket),
		Key:      aws.String(loc.Key),
		UploadId: aws.String(session.UploadID),
	})
	if err != nil {
		return errors.NewObjectError("abortMultipartUpload", loc.Bucket, loc.Key,
			convertAWSError(err, errors.ErrObjectNotFound))
	}
	return nil
}
