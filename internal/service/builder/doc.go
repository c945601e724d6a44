// Package builder produces the SSM Distributor package for a release.
//
// For every platform key of the layout it stages the installer next to the
// platform's install scripts, zips the staging directory, hashes the archive
// and finally writes manifest.json to the output directory.
package builder
