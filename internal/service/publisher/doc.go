// Package publisher pushes a package manifest to SSM Distributor.
//
// A missing document is created, a new release version is added on top of
// $LATEST and optionally promoted to default, and an already published
// version is left untouched.
package publisher
