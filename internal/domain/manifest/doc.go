// Package manifest defines the SSM Distributor package manifest.
//
// A manifest routes every supported OS family and CPU architecture to a zip
// archive and carries the SHA-256 checksum of each archive. It is written
// once per build by the builder service and read back by the publisher.
package manifest
