package artifact

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Uploader stores a local file in a bucket.
type Uploader interface {
	Upload(ctx context.Context, bucket, key, path, sha256Hex string) error
}

// putObjectAPI is the subset of the S3 client used by S3Store.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements Uploader with Amazon S3.
type S3Store struct {
	api putObjectAPI
}

var (
	// errDigestRequired is returned when an upload has no checksum.
	errDigestRequired = errors.New("sha256 digest required")
	// errBucketRequired is returned when an upload has no bucket.
	errBucketRequired = errors.New("bucket required")
)

// NewS3Store creates an uploader from the provided AWS configuration.
func NewS3Store(cfg aws.Config) *S3Store {
	return &S3Store{api: s3.NewFromConfig(cfg)}
}

// Upload streams the file at path to bucket/key and asks S3 to verify its SHA-256.
func (s *S3Store) Upload(ctx context.Context, bucket, key, path, sha256Hex string) error {
	if bucket == "" {
		return errBucketRequired
	}

	checksum, err := encodeSHA256(sha256Hex)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(key),
		Body:              f,
		ContentLength:     aws.Int64(info.Size()),
		ChecksumAlgorithm: s3types.ChecksumAlgorithmSha256,
		ChecksumSHA256:    aws.String(checksum),
		Metadata: map[string]string{
			"sha256": sha256Hex,
		},
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}

	return nil
}

// encodeSHA256 converts a hex digest to the base64 form S3 expects.
func encodeSHA256(hexDigest string) (string, error) {
	if hexDigest == "" {
		return "", errDigestRequired
	}

	raw, err := hex.DecodeString(hexDigest)
	if err != nil {
		return "", fmt.Errorf("decode sha256: %w", err)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}
