// Package buildinfo reports the composeviz release a binary was built from.
//
// Release builds stamp the variables below with the linker:
//
//	-X github.com/matzehuels/composeviz/pkg/buildinfo.Version=v0.4.0
//
// Binaries built with go install leave them unset and fall back to the
// module version and VCS stamp recorded by the toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved build metadata of the running binary.
type Info struct {
	Version string
	Commit  string
	Date    string
}

// Current returns the linker-stamped values, completed from the embedded
// module information where they were left at their defaults.
func Current() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
}

func resolve(bi *debug.BuildInfo) Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	if bi == nil {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "none":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Date == "unknown":
			info.Date = s.Value
		}
	}
	return info
}

// Template returns the cobra version template printed by composeviz --version.
func Template() string {
	info := Current()
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date)
}
