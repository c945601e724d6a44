package manifest

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// SchemaVersion is the only manifest schema produced by the builder.
	SchemaVersion = "2.0"

	// AnyVersion is the architecture selector matching every OS version.
	AnyVersion = "_any"

	// Filename is the name of the manifest written next to the archives.
	Filename = "manifest.json"

	// ArchiveExtension is appended to a platform key to name its archive.
	ArchiveExtension = ".zip"

	// sha256HexLength is the length of a hex encoded SHA-256 digest.
	sha256HexLength = 64
)

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid manifest")

	errSchemaVersion  = fmt.Errorf("%w: unsupported schema version", ErrInvalid)
	errEmptyVersion   = fmt.Errorf("%w: version is empty", ErrInvalid)
	errMissingFile    = fmt.Errorf("%w: referenced file has no checksum entry", ErrInvalid)
	errBadChecksum    = fmt.Errorf("%w: sha256 checksum is not 64 lowercase hex characters", ErrInvalid)
	errEmptyReference = fmt.Errorf("%w: empty file reference", ErrInvalid)
)

// Manifest is the JSON document stored as the content of an SSM package.
type Manifest struct {
	// SchemaVersion is always SchemaVersion.
	SchemaVersion string `json:"schemaVersion"`
	// Version is the package version without a leading "v".
	Version string `json:"version"`
	// Packages routes OS family -> version selector -> architecture -> archive.
	Packages Packages `json:"packages"`
	// Files maps archive names to their checksums.
	Files map[string]*File `json:"files"`
}

// Packages is the installer routing table of a manifest.
type Packages map[string]map[string]map[string]*PackageRef

// PackageRef points at an archive listed in Manifest.Files.
type PackageRef struct {
	File string `json:"file"`
}

// File describes a single archive.
type File struct {
	Checksums Checksums `json:"checksums"`
}

// Checksums holds the archive digests.
type Checksums struct {
	SHA256 string `json:"sha256"`
}

// Route maps one OS family and architecture to a platform key.
type Route struct {
	OS   string
	Arch string
	Key  string
}

// NormalizeVersion strips a single leading "v" from a release version.
func NormalizeVersion(version string) string {
	return strings.TrimPrefix(version, "v")
}

// ArchiveName returns the archive file name for a platform key.
func ArchiveName(key string) string {
	return key + ArchiveExtension
}

// New assembles a manifest for the given version.
// checksums maps platform keys to hex SHA-256 digests of their archives.
func New(version string, routes []Route, checksums map[string]string) *Manifest {
	m := &Manifest{
		SchemaVersion: SchemaVersion,
		Version:       NormalizeVersion(version),
		Packages:      make(Packages, len(routes)),
		Files:         make(map[string]*File, len(checksums)),
	}

	for _, route := range routes {
		selectors, ok := m.Packages[route.OS]
		if !ok {
			selectors = map[string]map[string]*PackageRef{AnyVersion: {}}
			m.Packages[route.OS] = selectors
		}

		selectors[AnyVersion][route.Arch] = &PackageRef{File: ArchiveName(route.Key)}
	}

	for key, digest := range checksums {
		m.Files[ArchiveName(key)] = &File{Checksums: Checksums{SHA256: digest}}
	}

	return m
}

// Validate checks the manifest is complete and self-consistent.
func (m *Manifest) Validate() error {
	if m.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: %q", errSchemaVersion, m.SchemaVersion)
	}

	if strings.TrimSpace(m.Version) == "" {
		return errEmptyVersion
	}

	for _, name := range m.ReferencedFiles() {
		if name == "" {
			return errEmptyReference
		}

		if _, ok := m.Files[name]; !ok {
			return fmt.Errorf("%w: %s", errMissingFile, name)
		}
	}

	for name, file := range m.Files {
		if file == nil || !isSHA256Hex(file.Checksums.SHA256) {
			return fmt.Errorf("%w: %s", errBadChecksum, name)
		}
	}

	return nil
}

// ReferencedFiles returns the sorted, de-duplicated archive names used by Packages.
func (m *Manifest) ReferencedFiles() []string {
	seen := make(map[string]struct{})

	for _, selectors := range m.Packages {
		for _, archs := range selectors {
			for _, ref := range archs {
				if ref == nil {
					seen[""] = struct{}{}
					continue
				}

				seen[ref.File] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// FileNames returns the sorted archive names listed in Files.
func (m *Manifest) FileNames() []string {
	names := make([]string, 0, len(m.Files))
	for name := range m.Files {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Encode renders the manifest as compact JSON with sorted keys.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return data, nil
}

// Decode parses a manifest and validates it.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

func isSHA256Hex(s string) bool {
	if len(s) != sha256HexLength || strings.ToLower(s) != s {
		return false
	}

	_, err := hex.DecodeString(s)

	return err == nil
}
