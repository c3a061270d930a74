package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()

	if !strings.HasPrefix(info, "wordguess version dev") {
		t.Errorf("version info should start with 'wordguess version dev', got %q", info)
	}

	if !strings.Contains(info, runtime.Version()) {
		t.Errorf("version info should contain Go version %s", runtime.Version())
	}
}

func TestGetVersionInfoWithCustomValues(t *testing.T) {
	originalVersion := Version
	originalCommit := GitCommit
	originalBuildTime := BuildTime

	Version = "v1.0.0"
	GitCommit = "abc123"
	BuildTime = "2024-01-01T00:00:00Z"

	defer func() {
		Version = originalVersion
		GitCommit = originalCommit
		BuildTime = originalBuildTime
	}()

	got := Get()
	if got.Version != "v1.0.0" || got.GitCommit != "abc123" || got.BuildTime != "2024-01-01T00:00:00Z" {
		t.Errorf("unexpected build info %+v", got)
	}

	want := "wordguess version v1.0.0 (commit: abc123, built: 2024-01-01T00:00:00Z, go: " + runtime.Version() + ")"
	if info := GetVersionInfo(); info != want {
		t.Errorf("GetVersionInfo() = %q, want %q", info, want)
	}
}
