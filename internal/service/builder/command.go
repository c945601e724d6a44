package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/ssm-package/internal/config"
	"github.com/oshokin/ssm-package/internal/domain/manifest"
	"github.com/oshokin/ssm-package/internal/logger"
)

// Options contains inputs for the builder entry point.
type Options struct {
	// Version is the release version; a leading "v" is stripped.
	Version string
	// BaseDir holds one staging directory per platform key (defaults to tools/ssm).
	BaseDir string
	// BuildDir is the root that layout artifact paths are relative to (defaults to build).
	BuildDir string
	// OutputDir receives the archives and manifest.json (defaults to build/packages/ssm).
	OutputDir string
	// Layout lists the artifacts and installer routes. Zero value means config.Default().
	Layout config.Layout
	// Stdout receives the manifest JSON. Defaults to os.Stdout.
	Stdout io.Writer
}

// builder holds the state of a single build.
type builder struct {
	opts      Options
	checksums map[string]string
}

// errVersionRequired is returned when no release version is given.
var errVersionRequired = errors.New("version must be provided")

// Run builds the archives and writes the manifest, returning it to the caller.
func Run(ctx context.Context, opts *Options) (*manifest.Manifest, error) {
	ctx = logger.WithName(ctx, "ssm-manifest")

	b, err := newBuilder(opts)
	if err != nil {
		return nil, err
	}

	m, err := b.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("build package: %w", err)
	}

	logger.InfoKV(ctx, "Manifest written",
		"version", m.Version,
		"files", len(m.Files),
		"path", b.manifestPath(),
	)

	return m, nil
}

// newBuilder fills defaults and validates the options.
func newBuilder(opts *Options) (*builder, error) {
	o := *opts

	if strings.TrimSpace(o.Version) == "" {
		return nil, errVersionRequired
	}

	if o.BaseDir == "" {
		o.BaseDir = config.DefaultBaseDir
	}

	if o.BuildDir == "" {
		o.BuildDir = config.DefaultBuildDir
	}

	if o.OutputDir == "" {
		o.OutputDir = config.DefaultOutputDir
	}

	if len(o.Layout.Artifacts) == 0 {
		o.Layout = config.Default()
	}

	if err := o.Layout.Validate(); err != nil {
		return nil, err
	}

	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}

	return &builder{
		opts:      o,
		checksums: make(map[string]string, len(o.Layout.Artifacts)),
	}, nil
}

// Run packages every artifact and writes the manifest.
func (b *builder) Run(ctx context.Context) (*manifest.Manifest, error) {
	logger.Info(ctx, "Packaging installers")

	if err := os.MkdirAll(b.opts.OutputDir, config.DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	for _, artifact := range b.opts.Layout.ArtifactList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := b.packageArtifact(ctx, artifact); err != nil {
			return nil, err
		}
	}

	m := manifest.New(b.opts.Version, b.opts.Layout.Routes(), b.checksums)

	if err := b.saveManifest(m); err != nil {
		return nil, err
	}

	return m, nil
}

// packageArtifact creates the archive for one platform key if needed and records its checksum.
func (b *builder) packageArtifact(ctx context.Context, artifact config.Artifact) error {
	ctx = logger.WithKV(ctx, "key", artifact.Key)

	archivePath := filepath.Join(b.opts.OutputDir, manifest.ArchiveName(artifact.Key))

	reused := true

	if _, err := os.Stat(archivePath); errors.Is(err, os.ErrNotExist) {
		reused = false

		stagingDir := filepath.Join(b.opts.BaseDir, artifact.Key)
		installer := filepath.Join(b.opts.BuildDir, filepath.FromSlash(artifact.Path))

		logger.DebugKV(ctx, "Staging installer", "installer", installer, "staging_dir", stagingDir)

		if err = stageInstaller(installer, stagingDir); err != nil {
			return err
		}

		if err = zipDirectory(stagingDir, archivePath); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", archivePath, err)
	}

	digest, size, err := FileSHA256(archivePath)
	if err != nil {
		return err
	}

	b.checksums[artifact.Key] = digest

	logger.InfoKV(ctx, "Archive ready",
		"path", archivePath,
		"size", humanize.Bytes(uint64(size)), //nolint:gosec // File sizes are never negative.
		"sha256", digest,
		"reused", reused,
	)

	return nil
}

// saveManifest prints the manifest to stdout and writes it to the output directory.
func (b *builder) saveManifest(m *manifest.Manifest) error {
	contents, err := m.Encode()
	if err != nil {
		return err
	}

	if _, err = fmt.Fprintln(b.opts.Stdout, string(contents)); err != nil {
		return fmt.Errorf("print manifest: %w", err)
	}

	if err = os.WriteFile(b.manifestPath(), contents, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

func (b *builder) manifestPath() string {
	return filepath.Join(b.opts.OutputDir, manifest.Filename)
}
