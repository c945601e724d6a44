package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/ssm-package/internal/cloud"
	"github.com/oshokin/ssm-package/internal/service/publisher"
)

// execute runs a fresh root command with a recording publish func.
func execute(t *testing.T, publishErr error, args ...string) (*publisher.Options, string, error) {
	t.Helper()

	var (
		captured *publisher.Options
		stderr   bytes.Buffer
	)

	root := newRootCommand(func(ctx context.Context, options *publisher.Options) error {
		require.NotNil(t, ctx)

		captured = options

		return publishErr
	})

	root.SetOut(new(bytes.Buffer))
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()

	return captured, stderr.String(), err
}

func TestRootMapsArguments(t *testing.T) {
	t.Parallel()

	options, _, err := execute(t, nil, "AWSDistroOTel-Collector", "v0.2.0", "aws-otel-collector", "us-west-2")
	require.NoError(t, err)
	require.NotNil(t, options)

	require.Equal(t, "AWSDistroOTel-Collector", options.PackageName)
	require.Equal(t, "v0.2.0", options.Version)
	require.Equal(t, "aws-otel-collector", options.Bucket)
	require.Equal(t, cloud.Settings{Region: "us-west-2"}, options.Cloud)
	require.False(t, options.NoDefault)
	require.Equal(t, publisher.DefaultManifestPath, options.ManifestPath)
	require.Empty(t, options.UploadDir)
	require.NotNil(t, options.Stdout)
}

func TestRootMapsFlags(t *testing.T) {
	t.Parallel()

	options, _, err := execute(t, nil,
		"--no-default",
		"-m", "dist/manifest.json",
		"--upload-dir", "dist",
		"--profile", "release",
		"--endpoint", "http://localhost:4566",
		"AWSDistroOTel-Collector", "v0.2.0", "aws-otel-collector", "eu-central-1",
	)
	require.NoError(t, err)
	require.NotNil(t, options)

	require.True(t, options.NoDefault)
	require.Equal(t, "dist/manifest.json", options.ManifestPath)
	require.Equal(t, "dist", options.UploadDir)
	require.Equal(t, cloud.Settings{
		Region:   "eu-central-1",
		Profile:  "release",
		Endpoint: "http://localhost:4566",
	}, options.Cloud)
}

func TestRootRequiresFourArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "none"},
		{name: "three", args: []string{"pkg", "v1", "bucket"}},
		{name: "five", args: []string{"pkg", "v1", "bucket", "us-east-1", "extra"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			options, stderr, err := execute(t, nil, tt.args...)

			require.Error(t, err)
			require.Nil(t, options)
			require.Contains(t, stderr, "accepts 4 arg(s)")
		})
	}
}

func TestRootReturnsPublishError(t *testing.T) {
	t.Parallel()

	errRemote := errors.New("throttled")

	_, _, err := execute(t, errRemote, "pkg", "v1", "bucket", "us-east-1")

	require.ErrorIs(t, err, errRemote)
}

func TestRootRejectsUnknownLogLevel(t *testing.T) {
	t.Parallel()

	options, _, err := execute(t, nil, "--log-level", "loud", "pkg", "v1", "bucket", "us-east-1")

	require.Error(t, err)
	require.Nil(t, options)
}
