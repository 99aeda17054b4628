package remote

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DigestFromETag turns an ETag into a content digest. Multipart ETags have
// the form "<md5-of-md5s>-<parts>" and do not hash the content, so they
// yield no digest.
func DigestFromETag(etag string) string {
	etag = strings.Trim(etag, `"`)
	if etag == "" || strings.Contains(etag, "-") {
		return ""
	}
	return etag
}

func checksumAlgorithm(name string) types.ChecksumAlgorithm {
	return types.ChecksumAlgorithm(strings.ToUpper(name))
}

func partChecksum(out *s3.UploadPartOutput, algorithm string) string {
	switch checksumAlgorithm(algorithm) {
	case types.ChecksumAlgorithmCrc32:
		return aws.ToString(out.ChecksumCRC32)
	case types.ChecksumAlgorithmCrc32c:
		return aws.ToString(out.ChecksumCRC32C)
	case types.ChecksumAlgorithmSha1:
		return aws.ToString(out.ChecksumSHA1)
	case types.ChecksumAlgorithmSha256:
		return aws.ToString(out.ChecksumSHA256)
	default:
		return ""
	}
}

func setPartChecksum(part *types.CompletedPart, algorithm, value string) {
	if value == "" {
		return
	}
	switch checksumAlgorithm(algorithm) {
	case types.ChecksumAlgorithmCrc32:
		part.ChecksumCRC32 = aws.String(value)
	case types.ChecksumAlgorithmCrc32c:
		part.ChecksumCRC32C = aws.String(value)
	case types.ChecksumAlgorithmSha1:
		part.ChecksumSHA1 = aws.String(value)
	case types.ChecksumAlgorithmSha256:
		part.ChecksumSHA256 = aws.String(value)
	}
}

func headChecksums(out *s3.HeadObjectOutput) map[string]string {
	sums := make(map[string]string)
	add := func(name string, v *string) {
		if s := aws.ToString(v); s != "" {
			sums[name] = s
		}
	}
	add("CRC32", out.ChecksumCRC32)
	add("CRC32C", out.ChecksumCRC32C)
	add("SHA1", out.ChecksumSHA1)
	add("SHA256", out.ChecksumSHA256)
	if len(sums) == 0 {
		return nil
	}
	return sums
}
