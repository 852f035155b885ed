// Package buildinfo reports the flowlens version.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/flowlens/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/flowlens/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/flowlens/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Without ldflags, [Current] falls back to the module version and VCS
// stamps the go tool embeds, so `go install` builds still report something
// useful.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Set via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved build information.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current returns the ldflags values, completed from the embedded build
// info where they were left at their defaults.
func Current() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	return fill(info, bi)
}

func fill(info Info, bi *debug.BuildInfo) Info {
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

// String returns the build information on three lines.
func String() string {
	i := Current()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", i.Version, i.Commit, i.Date)
}

// Template returns the cobra version template.
func Template() string {
	return "{{.Name}} " + String() + "\n"
}
