package remote

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/s3api"
)

// maxPageSize is the largest page ListObjectsV2 will return.
const maxPageSize = 1000

// page is one converted ListObjectsV2 response.
type page struct {
	Objects  []backend.Entry
	Prefixes []backend.Entry
}

// paginator walks ListObjectsV2 pages by continuation token. The token is
// never exposed beyond this type.
type paginator struct {
	client            s3api.S3API
	bucket            string
	prefix            string
	delimiter         string
	pageSize          int32
	continuationToken *string
	hasMorePages      bool
	firstPage         bool
}

func newPaginator(client s3api.S3API, bucket, prefix, delimiter string, pageSize int32) *paginator {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &paginator{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		delimiter: delimiter,
		pageSize:  pageSize,
		firstPage: true,
	}
}

// HasMorePages returns true if there are more pages to fetch.
func (p *paginator) HasMorePages() bool {
	return p.firstPage || p.hasMorePages
}

// NextPage fetches the next page of results.
func (p *paginator) NextPage(ctx context.Context) (*page, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(p.bucket),
		MaxKeys: aws.Int32(p.pageSize),
	}
	if p.prefix != "" {
		input.Prefix = aws.String(p.prefix)
	}
	if p.delimiter != "" {
		input.Delimiter = aws.String(p.delimiter)
	}
	if !p.firstPage && p.continuationToken != nil {
		input.ContinuationToken = p.continuationToken
	}

	output, err := p.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list objects page: %w", err)
	}

	p.firstPage = false
	p.hasMorePages = aws.ToBool(output.IsTruncated) && output.NextContinuationToken != nil
	p.continuationToken = output.NextContinuationToken

	return convertOutput(output), nil
}

func convertOutput(output *s3.ListObjectsV2Output) *page {
	result := &page{
		Objects:  make([]backend.Entry, 0, len(output.Contents)),
		Prefixes: make([]backend.Entry, 0, len(output.CommonPrefixes)),
	}

	for _, obj := range output.Contents {
		result.Objects = append(result.Objects, backend.Entry{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ModTime:      aws.ToTime(obj.LastModified),
			Digest:       DigestFromETag(aws.ToString(obj.ETag)),
			StorageClass: string(obj.StorageClass),
		})
	}

	for _, prefix := range output.CommonPrefixes {
		result.Prefixes = append(result.Prefixes, backend.Entry{
			Key:      aws.ToString(prefix.Prefix),
			IsPrefix: true,
		})
	}

	return result
}
