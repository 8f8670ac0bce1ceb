// Package version reports the build version of mtcap-allowlist.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/mtcap-allowlist/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/mtcap-allowlist/internal/version.Commit=abc123"
//
// Otherwise they are read from the VCS stamp in the build info, falling back
// to "dev" and "unknown".
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		populateFromBuildInfo(readSettings())
	}

	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func readSettings() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	return settings
}

// populateFromBuildInfo fills Commit, and Version when still unset, from the
// vcs.* build settings
func populateFromBuildInfo(settings map[string]string) {
	if revision := settings["vcs.revision"]; Commit == "" && revision != "" {
		if len(revision) > 7 {
			revision = revision[:7]
		}
		if settings["vcs.modified"] == "true" {
			revision += "-dirty"
		}
		Commit = revision
	}

	if Version == "" {
		if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
			Version = fmt.Sprintf("dev-%s", t.Format("20060102"))
		}
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s, %s)", Version, Commit, runtime.Version())
}

// UserAgent is the User-Agent sent to gateways
func UserAgent() string {
	return "mtcap-allowlist/" + Version
}
