// Package version reports build information for themetree. Values are
// injected with ldflags, falling back to the module build info embedded by
// go install.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const unknown = "unknown"

var (
	// Version is injected via -ldflags "-X github.com/jmylchreest/themetree/internal/version.Version=x.y.z".
	Version = "dev"

	// Commit is injected via -ldflags "-X github.com/jmylchreest/themetree/internal/version.Commit=$(git rev-parse HEAD)".
	Commit = unknown

	// Date is injected via -ldflags "-X github.com/jmylchreest/themetree/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)".
	Date = unknown
)

// Info holds version information for the binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var readBuildInfo = debug.ReadBuildInfo

// GetInfo returns the version information, filling unset fields from the
// embedded build info when available.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == unknown {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == unknown {
				info.Date = s.Value
			}
		}
	}
	return info
}

// String returns a human-readable version string.
func String() string {
	info := GetInfo()
	if info.Commit != unknown && info.Date != unknown {
		return fmt.Sprintf("themetree version %s (commit: %s, built: %s, %s, %s)",
			info.Version, shortCommit(info.Commit), info.Date, info.GoVersion, info.Platform)
	}
	return fmt.Sprintf("themetree version %s (%s, %s)", info.Version, info.GoVersion, info.Platform)
}

// Short returns the bare version.
func Short() string {
	return GetInfo().Version
}

func shortCommit(c string) string {
	if len(c) > 8 {
		return c[:8]
	}
	return c
}
