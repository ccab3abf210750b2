// Package buildinfo reports which build of patina is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/patina/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/patina/pkg/buildinfo.Commit=$(git rev-parse HEAD)"
//
// Anything left unstamped is filled from the module and VCS information the
// Go toolchain embeds, so "go install" builds still report something useful.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build information reported by the server's health endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version,omitempty"`
}

var (
	embedded     *debug.BuildInfo
	embeddedOnce sync.Once
)

func readEmbedded() *debug.BuildInfo {
	embeddedOnce.Do(func() {
		if bi, ok := debug.ReadBuildInfo(); ok {
			embedded = bi
		}
	})
	return embedded
}

// Get returns the build information, preferring stamped values.
func Get() Info {
	return resolve(Info{Version: Version, Commit: Commit, Date: Date}, readEmbedded())
}

// resolve fills the unstamped fields of info from bi.
func resolve(info Info, bi *debug.BuildInfo) Info {
	if bi == nil {
		return info
	}
	info.GoVersion = bi.GoVersion
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	var fromVCS, dirty bool
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "none":
			info.Commit, fromVCS = s.Value, true
		case s.Key == "vcs.time" && info.Date == "unknown":
			info.Date = s.Value
		case s.Key == "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if fromVCS && dirty {
		info.Commit += "-dirty"
	}
	return info
}

// Template returns the version template for cobra.
func Template() string {
	info := Get()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", info.Version, info.Commit, info.Date)
}
