// Package version reports the lanprobe build version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/lanprobe/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/lanprobe/internal/version.Commit=abc1234"
//
// Otherwise they are derived from the module and VCS build info.
var (
	Version = ""
	Commit  = ""
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		Version, Commit = fromBuildInfo(info, Version, Commit)
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills whichever of version and commit is still empty
func fromBuildInfo(info *debug.BuildInfo, version, commit string) (string, string) {
	if version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}

	if commit != "" {
		return version, commit
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision == "" {
		return version, commit
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if dirty {
		revision += "-dirty"
	}
	return version, revision
}

// Full returns the version string including the commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
