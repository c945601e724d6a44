package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/ssm-package/internal/cloud"
	"github.com/oshokin/ssm-package/internal/config"
	"github.com/oshokin/ssm-package/internal/domain/manifest"
	"github.com/oshokin/ssm-package/internal/repository/document"
	"github.com/oshokin/ssm-package/internal/service/builder"
	"github.com/oshokin/ssm-package/internal/service/publisher"
)

// memoryStore is a minimal in-memory SSM service keeping documents and their versions.
type memoryStore struct {
	versions map[string][]document.Version
	content  map[string]map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		versions: make(map[string][]document.Version),
		content:  make(map[string]map[string]string),
	}
}

func (m *memoryStore) FindPackages(_ context.Context, name string) ([]document.Document, error) {
	if _, ok := m.versions[name]; !ok {
		return nil, nil
	}

	return []document.Document{{Name: name}}, nil
}

func (m *memoryStore) CreatePackage(_ context.Context, input *document.Input) (*document.Document, error) {
	m.versions[input.Name] = []document.Version{{DocumentVersion: "1", VersionName: input.VersionName, IsDefault: true}}
	m.content[input.Name] = map[string]string{"1": input.Content}

	return &document.Document{Name: input.Name, LatestVersion: "1", DefaultVersion: "1"}, nil
}

func (m *memoryStore) ListVersions(_ context.Context, name string) ([]document.Version, error) {
	return append([]document.Version(nil), m.versions[name]...), nil
}

func (m *memoryStore) UpdatePackage(_ context.Context, input *document.Input) (*document.Document, error) {
	next := strconv.Itoa(len(m.versions[input.Name]) + 1)
	m.versions[input.Name] = append(m.versions[input.Name], document.Version{DocumentVersion: next, VersionName: input.VersionName})
	m.content[input.Name][next] = input.Content

	return &document.Document{Name: input.Name, LatestVersion: next}, nil
}

func (m *memoryStore) SetDefaultVersion(_ context.Context, name, documentVersion string) error {
	for i := range m.versions[name] {
		m.versions[name][i].IsDefault = m.versions[name][i].DocumentVersion == documentVersion
	}

	return nil
}

func (m *memoryStore) defaultVersionName(name string) string {
	for _, v := range m.versions[name] {
		if v.IsDefault {
			return v.VersionName
		}
	}

	return ""
}

// buildRelease runs the builder over a fresh fixture and returns the output directory.
func buildRelease(t *testing.T, root, version string) string {
	t.Helper()

	layout := config.Default()
	build := filepath.Join(root, "build")
	base := filepath.Join(root, "tools", "ssm")
	output := filepath.Join(root, "out")

	for _, artifact := range layout.Artifacts {
		path := filepath.Join(build, filepath.FromSlash(artifact.Path))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(artifact.Key+" "+version), 0o644))

		scripts := filepath.Join(base, artifact.Key)
		require.NoError(t, os.MkdirAll(scripts, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(scripts, "install.sh"), []byte("#!/bin/sh\n"), 0o644))
	}

	_, err := builder.Run(context.Background(), &builder.Options{
		Version:   version,
		BaseDir:   base,
		BuildDir:  build,
		OutputDir: output,
		Layout:    layout,
		Stdout:    new(bytes.Buffer),
	})
	require.NoError(t, err)

	return output
}

// TestReleaseLifecycle builds two releases and walks the document through create, no-op and update.
func TestReleaseLifecycle(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	publish := func(output, version string) (*publisher.Result, string) {
		var stdout bytes.Buffer

		result, err := publisher.Run(context.Background(), &publisher.Options{
			PackageName:  "AWSDistroOTel-Collector",
			Version:      version,
			Bucket:       "aws-otel-collector",
			Cloud:        cloud.Settings{Region: "us-east-1"},
			ManifestPath: filepath.Join(output, manifest.Filename),
			Stdout:       &stdout,
			Store:        store,
		})
		require.NoError(t, err)

		return result, stdout.String()
	}

	first := buildRelease(t, t.TempDir(), "v0.1.0")

	result, out := publish(first, "v0.1.0")
	require.Equal(t, publisher.OutcomeCreated, result.Outcome)
	require.Equal(t, "AWSDistroOTel-Collector v0.1.0 is created in us-east-1.\n", out)

	result, out = publish(first, "v0.1.0")
	require.Equal(t, publisher.OutcomeExists, result.Outcome)
	require.Equal(t, "AWSDistroOTel-Collector v0.1.0 exists in us-east-1.\n", out)

	second := buildRelease(t, t.TempDir(), "v0.2.0")

	result, _ = publish(second, "v0.2.0")
	require.Equal(t, publisher.OutcomeUpdated, result.Outcome)
	require.True(t, result.Defaulted)
	require.Equal(t, "2", result.DocumentVersion)
	require.Equal(t, "v0.2.0", store.defaultVersionName("AWSDistroOTel-Collector"))

	published, err := manifest.Decode([]byte(store.content["AWSDistroOTel-Collector"]["2"]))
	require.NoError(t, err)
	require.Equal(t, "0.2.0", published.Version)
	require.Len(t, published.Files, len(config.Default().Artifacts))
}
