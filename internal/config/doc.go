// Package config defines the package layout used by the manifest builder and
// provides helpers to load, validate and save it in YAML format.
//
// A Layout names every platform key together with the installer it is built
// from and routes OS families and architectures to those keys. Default
// returns the layout of the aws-otel-collector release.
package config
