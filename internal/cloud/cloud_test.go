package cloud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSettingsValidate checks region and endpoint validation.
func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Settings{}.Validate(), errRegionRequired)
	require.ErrorIs(t, Settings{Region: "us-west-2", Endpoint: "localhost:4566"}.Validate(), errInvalidEndpoint)
	require.ErrorIs(t, Settings{Region: "us-west-2", Endpoint: "ftp://localhost"}.Validate(), errInvalidEndpoint)
	require.NoError(t, Settings{Region: "us-west-2"}.Validate())
	require.NoError(t, Settings{Region: "us-west-2", Endpoint: "http://localhost:4566"}.Validate())
}

// TestLoadConfigAppliesSettings builds a config without touching the network.
func TestLoadConfigAppliesSettings(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")
	t.Setenv("AWS_PROFILE", "")

	cfg, err := LoadConfig(context.Background(), Settings{Region: "eu-central-1", Endpoint: "http://localhost:4566"})
	require.NoError(t, err)
	require.Equal(t, "eu-central-1", cfg.Region)
	require.NotNil(t, cfg.BaseEndpoint)
	require.Equal(t, "http://localhost:4566", *cfg.BaseEndpoint)

	_, err = LoadConfig(context.Background(), Settings{})
	require.ErrorIs(t, err, errRegionRequired)
}
