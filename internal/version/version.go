package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const appName = "giznotion"

var (
	// Version is the semantic version number
	Version = "0.3.0-dev"

	// GitCommit is the git commit hash (injected at build time)
	GitCommit = "unknown"

	// BuildDate is the build date (injected at build time)
	BuildDate = "unknown"
)

// Info contains version information
type Info struct {
	Version     string `json:"version"`
	GitCommit   string `json:"git_commit"`
	BuildDate   string `json:"build_date"`
	BuildMethod string `json:"build_method"`
	GoVersion   string `json:"go_version"`
	Platform    string `json:"platform"`
}

// GetInfo returns comprehensive version information
func GetInfo() Info {
	info := Info{
		Version:     Version,
		GitCommit:   GitCommit,
		BuildDate:   BuildDate,
		BuildMethod: "release",
		GoVersion:   runtime.Version(),
		Platform:    fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if GitCommit == "unknown" {
		info.BuildMethod = "source"
		// go install records the VCS revision in the build info
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					info.GitCommit = s.Value
				}
			}
		}
	}
	return info
}

// GetVersionString returns a formatted version string
func GetVersionString() string {
	info := GetInfo()
	if info.GitCommit == "unknown" {
		return fmt.Sprintf("%s %s", appName, info.Version)
	}
	shortCommit := info.GitCommit
	if len(shortCommit) > 8 {
		shortCommit = shortCommit[:8]
	}
	return fmt.Sprintf("%s %s (%s)", appName, info.Version, shortCommit)
}

// GetDetailedVersionString returns a detailed version string for the version command
func GetDetailedVersionString() string {
	info := GetInfo()
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", appName, info.Version)
	fmt.Fprintf(&b, "Git commit: %s\n", info.GitCommit)
	fmt.Fprintf(&b, "Build date: %s\n", info.BuildDate)
	fmt.Fprintf(&b, "Build method: %s\n", info.BuildMethod)
	fmt.Fprintf(&b, "Go version: %s\n", info.GoVersion)
	fmt.Fprintf(&b, "Platform: %s", info.Platform)
	return b.String()
}

// IsRelease returns true if this is a release version (not a dev build)
func IsRelease() bool {
	return Version != "" && GitCommit != "unknown" && !strings.Contains(Version, "dev")
}
