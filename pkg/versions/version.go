// Package versions provides build version information for the document source server.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

const unknownStr = "unknown"

// Version information set by build using -ldflags
var (
	// Version is the released version of the server
	Version = "dev"
	// Commit is the git commit hash of the build
	Commit = unknownStr
	// BuildDate is the date when the binary was built
	BuildDate = unknownStr
)

// VersionInfo represents the version information
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// String renders the version for the version command
func (v VersionInfo) String() string {
	return fmt.Sprintf("docsource-api %s (commit %s, built %s, %s %s)",
		v.Version, v.Commit, v.BuildDate, v.GoVersion, v.Platform)
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	return versionInfo(Version, Commit, BuildDate, readVCS)
}

func readVCS() (revision, at string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			at = setting.Value
		}
	}
	return revision, at
}

func versionInfo(version, commit, buildDate string, vcs func() (string, string)) VersionInfo {
	// Development builds fall back to the VCS stamp of the binary
	if version == "dev" {
		revision, at := vcs()
		if commit == unknownStr && revision != "" {
			commit = revision
		}
		if buildDate == unknownStr && at != "" {
			buildDate = at
		}
		if commit != unknownStr {
			version = fmt.Sprintf("build-%.8s", commit)
		}
	}

	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
