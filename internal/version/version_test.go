package version

import (
	"strings"
	"testing"
)

func TestPopulateFromBuildInfo(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version, Commit = "", ""
	populateFromBuildInfo(map[string]string{
		"vcs.revision": "0123456789abcdef",
		"vcs.modified": "true",
		"vcs.time":     "2026-03-14T09:26:53Z",
	})

	if Commit != "0123456-dirty" {
		t.Errorf("Commit = %q, want 0123456-dirty", Commit)
	}
	if Version != "dev-20260314" {
		t.Errorf("Version = %q, want dev-20260314", Version)
	}
}

func TestPopulateFromBuildInfo_KeepsLdflags(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version, Commit = "v1.0.0", "feedbee"
	populateFromBuildInfo(map[string]string{"vcs.revision": "0123456789abcdef"})

	if Version != "v1.0.0" || Commit != "feedbee" {
		t.Errorf("ldflags values were overwritten: %s %s", Version, Commit)
	}
}

func TestUserAgent(t *testing.T) {
	if !strings.HasPrefix(UserAgent(), "mtcap-allowlist/") {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
	if !strings.Contains(Full(), Commit) {
		t.Errorf("Full() = %q should contain the commit", Full())
	}
}
