// Package version exposes build metadata for the release tools.
//
// Version, Commit and BuildTime are injected with -ldflags -X and default to
// development values. Get bundles them with the Go toolchain and platform.
package version
