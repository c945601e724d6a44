package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/ssm-package/internal/domain/manifest"
)

// Artifact binds a platform key to the installer it is packaged from.
type Artifact struct {
	// Key is the platform key, e.g. linux-amd64-rpm. It names the archive.
	Key string `yaml:"key"`
	// Path is the installer location relative to the build directory.
	Path string `yaml:"path"`
}

// Layout describes which installers are packaged and how they are routed.
// Treat it as immutable: accessors return copies.
type Layout struct {
	// Artifacts lists platform keys in packaging order.
	Artifacts []Artifact `yaml:"artifacts"`
	// Installers maps OS family -> CPU architecture -> platform key.
	Installers map[string]map[string]string `yaml:"installers"`
}

const (
	// DefaultBaseDir is the staging directory holding per-platform install scripts.
	DefaultBaseDir = "tools/ssm"

	// DefaultBuildDir is the directory containing built installers.
	DefaultBuildDir = "build"

	// DefaultOutputDir receives the archives and the manifest.
	DefaultOutputDir = "build/packages/ssm"

	// DefaultFilePermissions is the permission used for written files.
	DefaultFilePermissions = 0o644

	// DefaultDirPermissions is the permission used for created directories.
	DefaultDirPermissions = 0o755
)

var (
	// errNoArtifacts is returned when a layout lists no artifacts.
	errNoArtifacts = errors.New("layout has no artifacts")
	// errEmptyKey is returned when an artifact has no platform key.
	errEmptyKey = errors.New("artifact key must be provided")
	// errEmptyPath is returned when an artifact has no installer path.
	errEmptyPath = errors.New("artifact path must be provided")
	// errDuplicateKey is returned when two artifacts share a platform key.
	errDuplicateKey = errors.New("duplicate artifact key")
	// errUnknownKey is returned when an installer route points at an unknown artifact.
	errUnknownKey = errors.New("installer refers to unknown artifact")
	// errNoInstallers is returned when a layout routes nothing.
	errNoInstallers = errors.New("layout has no installers")
)

// Default returns the aws-otel-collector layout.
func Default() Layout {
	return Layout{
		Artifacts: []Artifact{
			{Key: "linux-amd64-rpm", Path: "packages/linux/amd64/aws-otel-collector.rpm"},
			{Key: "linux-arm64-rpm", Path: "packages/linux/arm64/aws-otel-collector.rpm"},
			{Key: "linux-amd64-deb", Path: "packages/debian/amd64/aws-otel-collector.deb"},
			{Key: "linux-arm64-deb", Path: "packages/debian/arm64/aws-otel-collector.deb"},
			{Key: "windows-amd64-msi", Path: "packages/windows/amd64/aws-otel-collector.msi"},
		},
		Installers: map[string]map[string]string{
			"windows": {"x86_64": "windows-amd64-msi"},
			"amazon":  {"x86_64": "linux-amd64-rpm", "arm64": "linux-arm64-rpm"},
			"ubuntu":  {"x86_64": "linux-amd64-deb", "arm64": "linux-arm64-deb"},
			"debian":  {"x86_64": "linux-amd64-deb"},
			"redhat":  {"x86_64": "linux-amd64-rpm", "arm64": "linux-arm64-rpm"},
			"centos":  {"x86_64": "linux-amd64-rpm"},
			"suse":    {"x86_64": "linux-amd64-rpm", "arm64": "linux-arm64-rpm"},
		},
	}
}

// Load reads a layout from the provided path and validates it.
// An empty path yields the default layout.
func Load(path string) (Layout, error) {
	if path == "" {
		return Default(), nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}

	var layout Layout
	if err = yaml.Unmarshal(contents, &layout); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	if err = layout.Validate(); err != nil {
		return Layout{}, err
	}

	return layout, nil
}

// Save writes the layout to the provided path.
func Save(path string, layout Layout) error {
	if err := layout.Validate(); err != nil {
		return err
	}

	data, err := Marshal(layout)
	if err != nil {
		return err
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}

	return nil
}

// Marshal renders the layout as YAML.
func Marshal(layout Layout) ([]byte, error) {
	data, err := yaml.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}

	return data, nil
}

// Validate checks keys are unique and every installer route is resolvable.
func (l Layout) Validate() error {
	if len(l.Artifacts) == 0 {
		return errNoArtifacts
	}

	keys := make(map[string]struct{}, len(l.Artifacts))

	for _, artifact := range l.Artifacts {
		if strings.TrimSpace(artifact.Key) == "" {
			return errEmptyKey
		}

		if strings.TrimSpace(artifact.Path) == "" {
			return fmt.Errorf("%s: %w", artifact.Key, errEmptyPath)
		}

		if _, ok := keys[artifact.Key]; ok {
			return fmt.Errorf("%s: %w", artifact.Key, errDuplicateKey)
		}

		keys[artifact.Key] = struct{}{}
	}

	if len(l.Installers) == 0 {
		return errNoInstallers
	}

	for osFamily, archs := range l.Installers {
		for arch, key := range archs {
			if _, ok := keys[key]; !ok {
				return fmt.Errorf("%s/%s -> %q: %w", osFamily, arch, key, errUnknownKey)
			}
		}
	}

	return nil
}

// ArtifactList returns a copy of the artifacts in packaging order.
func (l Layout) ArtifactList() []Artifact {
	return append([]Artifact(nil), l.Artifacts...)
}

// Routes flattens the installer table into manifest routes sorted by OS and architecture.
func (l Layout) Routes() []manifest.Route {
	routes := make([]manifest.Route, 0, len(l.Installers)*2)

	for osFamily, archs := range l.Installers {
		for arch, key := range archs {
			routes = append(routes, manifest.Route{OS: osFamily, Arch: arch, Key: key})
		}
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].OS != routes[j].OS {
			return routes[i].OS < routes[j].OS
		}

		return routes[i].Arch < routes[j].Arch
	})

	return routes
}
