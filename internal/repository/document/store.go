package document

import (
	"context"
	"fmt"
)

// LatestVersion addresses the newest version of a document in update calls.
const LatestVersion = "$LATEST"

// Document summarizes a package document.
type Document struct {
	// Name is the document name.
	Name string
	// DocumentVersion is the numeric version the summary refers to.
	DocumentVersion string
	// VersionName is the release version attached to DocumentVersion.
	VersionName string
	// LatestVersion is the newest numeric version, if reported.
	LatestVersion string
	// DefaultVersion is the numeric default version, if reported.
	DefaultVersion string
}

// Version is one entry of a document's version history.
type Version struct {
	// DocumentVersion is the numeric version assigned by the service.
	DocumentVersion string
	// VersionName is the release version.
	VersionName string
	// IsDefault marks the version consumers get when they ask for none.
	IsDefault bool
}

// Input carries the content of a new package version.
type Input struct {
	// Name is the document name.
	Name string
	// VersionName is the release version.
	VersionName string
	// Content is the manifest JSON.
	Content string
	// SourceURL is where the service fetches the archives from.
	SourceURL string
}

// Store lists, creates and updates package documents.
type Store interface {
	// FindPackages returns the caller-owned package documents with the given name.
	FindPackages(ctx context.Context, name string) ([]Document, error)
	// CreatePackage creates a new package document.
	CreatePackage(ctx context.Context, input *Input) (*Document, error)
	// ListVersions returns every version of a document.
	ListVersions(ctx context.Context, name string) ([]Version, error)
	// UpdatePackage adds a new version on top of $LATEST.
	UpdatePackage(ctx context.Context, input *Input) (*Document, error)
	// SetDefaultVersion promotes a numeric document version to default.
	SetDefaultVersion(ctx context.Context, name, documentVersion string) error
}

// BucketURL returns the attachment source URL for an S3 bucket.
func BucketURL(bucket string) string {
	return fmt.Sprintf("https://s3.amazonaws.com/%s", bucket)
}

// HasVersionName reports whether any version carries the given release version.
func HasVersionName(versions []Version, versionName string) bool {
	for _, v := range versions {
		if v.VersionName == versionName {
			return true
		}
	}

	return false
}
