// Package artifact uploads package archives to S3 with SHA-256 checksums.
package artifact
