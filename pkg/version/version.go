// Package version holds build metadata set with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
}

// Get returns build metadata. A dev build falls back to the VCS revision
// recorded by the Go toolchain when one is available.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if info.GitCommit != "unknown" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.GitCommit = s.Value
			case "vcs.time":
				if info.BuildTime == "unknown" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("wordguess version %s (commit: %s, built: %s, go: %s)",
		i.Version, i.GitCommit, i.BuildTime, i.GoVersion)
}

func GetVersionInfo() string {
	return Get().String()
}
