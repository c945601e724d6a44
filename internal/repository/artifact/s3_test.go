package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

const testDigest = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in

	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.body = body

	return &s3.PutObjectOutput{}, nil
}

// TestEncodeSHA256 converts hex digests to base64 and rejects bad input.
func TestEncodeSHA256(t *testing.T) {
	t.Parallel()

	encoded, err := encodeSHA256(testDigest)
	require.NoError(t, err)
	require.Equal(t, "n4bQgYhMfWWaL+qgxVrQFaO/TxsrC4Is0V1sFbDwCgg=", encoded)

	_, err = encodeSHA256("")
	require.ErrorIs(t, err, errDigestRequired)

	_, err = encodeSHA256("zz")
	require.Error(t, err)
}

// TestUploadSendsChecksum streams the file with checksum metadata.
func TestUploadSendsChecksum(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "linux-amd64-rpm.zip")
	require.NoError(t, os.WriteFile(path, []byte("test"), 0o600))

	api := &fakeS3{}
	store := &S3Store{api: api}

	require.NoError(t, store.Upload(context.Background(), "bucket", "linux-amd64-rpm.zip", path, testDigest))

	require.Equal(t, "bucket", aws.ToString(api.input.Bucket))
	require.Equal(t, "linux-amd64-rpm.zip", aws.ToString(api.input.Key))
	require.Equal(t, int64(4), aws.ToInt64(api.input.ContentLength))
	require.Equal(t, s3types.ChecksumAlgorithmSha256, api.input.ChecksumAlgorithm)
	require.Equal(t, testDigest, api.input.Metadata["sha256"])
	require.Equal(t, []byte("test"), api.body)
}

// TestUploadValidation rejects missing bucket and files.
func TestUploadValidation(t *testing.T) {
	t.Parallel()

	store := &S3Store{api: &fakeS3{}}

	require.ErrorIs(t, store.Upload(context.Background(), "", "k", "p", testDigest), errBucketRequired)
	require.ErrorIs(t,
		store.Upload(context.Background(), "b", "k", filepath.Join(t.TempDir(), "absent"), testDigest),
		os.ErrNotExist,
	)
}
