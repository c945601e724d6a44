package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/ssm-package/internal/cloud"
	"github.com/oshokin/ssm-package/internal/config"
	"github.com/oshokin/ssm-package/internal/domain/manifest"
	"github.com/oshokin/ssm-package/internal/logger"
	"github.com/oshokin/ssm-package/internal/repository/artifact"
	"github.com/oshokin/ssm-package/internal/repository/document"
)

// DefaultManifestPath is where the builder writes the manifest by default.
var DefaultManifestPath = filepath.Join(config.DefaultOutputDir, manifest.Filename) //nolint:gochecknoglobals // Derived constant.

// Outcome is the transition applied to the package document.
type Outcome int

const (
	// OutcomeExists means the version was already published; nothing changed.
	OutcomeExists Outcome = iota
	// OutcomeCreated means the document did not exist and was created.
	OutcomeCreated
	// OutcomeUpdated means a new version was added to the document.
	OutcomeUpdated
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "exists"
	}
}

// Options contains inputs for the publisher entry point.
type Options struct {
	// PackageName is the SSM document name.
	PackageName string
	// Version is the release version stored as the document version name.
	Version string
	// Bucket is the S3 bucket holding the archives.
	Bucket string
	// Cloud selects region, profile and endpoint.
	Cloud cloud.Settings
	// NoDefault keeps the current default version after an update.
	NoDefault bool
	// ManifestPath points at manifest.json (defaults to build/packages/ssm/manifest.json).
	ManifestPath string
	// UploadDir, when set, is where archives are uploaded from before a create or update.
	UploadDir string
	// Stdout receives the status lines. Defaults to os.Stdout.
	Stdout io.Writer
	// Store overrides the SSM document store.
	Store document.Store
	// Uploader overrides the S3 uploader.
	Uploader artifact.Uploader
}

// Result describes what the publisher did.
type Result struct {
	// Outcome is the applied transition.
	Outcome Outcome
	// DocumentVersion is the numeric version created, if any.
	DocumentVersion string
	// Defaulted reports whether the new version was promoted to default.
	Defaulted bool
	// Uploaded lists the archives uploaded to the bucket.
	Uploaded []string
}

// publisher holds the state of a single publication.
type publisher struct {
	opts     Options
	store    document.Store
	uploader artifact.Uploader
}

var (
	// errPackageNameRequired is returned when no document name is given.
	errPackageNameRequired = errors.New("package name must be provided")
	// errVersionRequired is returned when no release version is given.
	errVersionRequired = errors.New("version must be provided")
	// errBucketRequired is returned when no bucket is given.
	errBucketRequired = errors.New("s3 bucket must be provided")
	// errNoLatestVersion is returned when an update response lacks the new version id.
	errNoLatestVersion = errors.New("update response has no latest version")
)

// Run publishes the manifest and prints one status line per transition.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "ssm-publish")

	p, err := newPublisher(ctx, opts)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "package", p.opts.PackageName, "version", p.opts.Version, "region", p.opts.Cloud.Region)

	result, err := p.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("publish package: %w", err)
	}

	logger.InfoKV(ctx, "Publisher completed", "outcome", result.Outcome, "defaulted", result.Defaulted)

	return result, nil
}

// newPublisher validates options and builds the AWS clients that were not injected.
func newPublisher(ctx context.Context, opts *Options) (*publisher, error) {
	o := *opts

	switch {
	case strings.TrimSpace(o.PackageName) == "":
		return nil, errPackageNameRequired
	case strings.TrimSpace(o.Version) == "":
		return nil, errVersionRequired
	case strings.TrimSpace(o.Bucket) == "":
		return nil, errBucketRequired
	}

	if err := o.Cloud.Validate(); err != nil {
		return nil, err
	}

	if o.ManifestPath == "" {
		o.ManifestPath = DefaultManifestPath
	}

	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}

	p := &publisher{
		opts:     o,
		store:    o.Store,
		uploader: o.Uploader,
	}

	needUploader := o.UploadDir != "" && p.uploader == nil
	if p.store != nil && !needUploader {
		return p, nil
	}

	cfg, err := cloud.LoadConfig(ctx, o.Cloud)
	if err != nil {
		return nil, err
	}

	if p.store == nil {
		p.store = document.NewSSMStore(cfg)
	}

	if needUploader {
		p.uploader = artifact.NewS3Store(cfg)
	}

	return p, nil
}

// Run applies the document state machine.
func (p *publisher) Run(ctx context.Context) (*Result, error) {
	logger.Info(ctx, "Looking up package document")

	documents, err := p.store.FindPackages(ctx, p.opts.PackageName)
	if err != nil {
		return nil, err
	}

	if len(documents) == 0 {
		return p.create(ctx)
	}

	versions, err := p.store.ListVersions(ctx, p.opts.PackageName)
	if err != nil {
		return nil, err
	}

	if document.HasVersionName(versions, p.opts.Version) {
		p.printf("%s %s exists in %s.\n", p.opts.PackageName, p.opts.Version, p.opts.Cloud.Region)

		return &Result{Outcome: OutcomeExists}, nil
	}

	return p.update(ctx)
}

// create makes the first version of the document.
func (p *publisher) create(ctx context.Context) (*Result, error) {
	input, uploaded, err := p.prepare(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := p.store.CreatePackage(ctx, input)
	if err != nil {
		return nil, err
	}

	p.printf("%s %s is created in %s.\n", p.opts.PackageName, p.opts.Version, p.opts.Cloud.Region)

	return &Result{
		Outcome:         OutcomeCreated,
		DocumentVersion: doc.LatestVersion,
		Uploaded:        uploaded,
	}, nil
}

// update adds a version and promotes it unless NoDefault is set.
func (p *publisher) update(ctx context.Context) (*Result, error) {
	input, uploaded, err := p.prepare(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := p.store.UpdatePackage(ctx, input)
	if err != nil {
		return nil, err
	}

	p.printf("%s is updated to %s in %s.\n", p.opts.PackageName, p.opts.Version, p.opts.Cloud.Region)

	result := &Result{
		Outcome:         OutcomeUpdated,
		DocumentVersion: doc.LatestVersion,
		Uploaded:        uploaded,
	}

	if p.opts.NoDefault {
		return result, nil
	}

	if doc.LatestVersion == "" {
		return nil, errNoLatestVersion
	}

	if err = p.store.SetDefaultVersion(ctx, p.opts.PackageName, doc.LatestVersion); err != nil {
		return nil, err
	}

	p.printf("%s is set default to %s in %s.\n", p.opts.PackageName, p.opts.Version, p.opts.Cloud.Region)

	result.Defaulted = true

	return result, nil
}

// prepare reads the manifest, uploads the archives if requested and builds the document input.
func (p *publisher) prepare(ctx context.Context) (*document.Input, []string, error) {
	contents, err := os.ReadFile(filepath.Clean(p.opts.ManifestPath))
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}

	m, err := manifest.Decode(contents)
	if err != nil {
		return nil, nil, err
	}

	if m.Version != manifest.NormalizeVersion(p.opts.Version) {
		logger.WarnKV(ctx, "Manifest version differs from release version", "manifest_version", m.Version)
	}

	uploaded, err := p.upload(ctx, m)
	if err != nil {
		return nil, nil, err
	}

	return &document.Input{
		Name:        p.opts.PackageName,
		VersionName: p.opts.Version,
		Content:     string(contents),
		SourceURL:   document.BucketURL(p.opts.Bucket),
	}, uploaded, nil
}

// upload copies every archive listed in the manifest to the bucket.
func (p *publisher) upload(ctx context.Context, m *manifest.Manifest) ([]string, error) {
	if p.opts.UploadDir == "" {
		return nil, nil
	}

	names := m.FileNames()

	for _, name := range names {
		path := filepath.Join(p.opts.UploadDir, name)

		logger.InfoKV(ctx, "Uploading archive", "bucket", p.opts.Bucket, "key", name)

		if err := p.uploader.Upload(ctx, p.opts.Bucket, name, path, m.Files[name].Checksums.SHA256); err != nil {
			return nil, err
		}
	}

	return names, nil
}

func (p *publisher) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.opts.Stdout, format, args...)
}
