// Package buildinfo carries the version stamp set with -ldflags:
//
//	-X vicore/internal/buildinfo.Version=v0.3.0 -X vicore/internal/buildinfo.Commit=abc123
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for window titles and logs.
// Without ldflags it falls back to the VCS revision the toolchain embeds.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return shortRev(Commit)
	}
	if rev := vcsRevision(); rev != "" {
		return shortRev(rev)
	}
	return "dev"
}

// String is the full stamp printed by -version.
func String() string {
	return fmt.Sprintf("vicore %s (commit %s, built %s)", Version, Commit, Date)
}

func shortRev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
