package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0-dev"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Info is the build metadata of one release tool.
type Info struct {
	Tool      string
	Version   string
	Commit    string
	BuildTime string
	GoVersion string
	Platform  string
}

// Get collects the build metadata for the named tool.
func Get(tool string) Info {
	return Info{
		Tool:      tool,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders every field on one line.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s)",
		i.Tool, i.Version, i.Commit, i.BuildTime, i.GoVersion, i.Platform)
}

// Short returns only the semantic version string.
func Short() string {
	return Version
}
