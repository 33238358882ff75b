// Package buildinfo reports the version embedded by the Go toolchain.
package buildinfo

import (
	"runtime/debug"
	"strings"
	"sync"
)

// Info is the subset of the build metadata shown by --version.
type Info struct {
	Version  string
	Revision string
	Modified bool
	Tags     string
}

var readBuildInfo = debug.ReadBuildInfo

var current = sync.OnceValue(func() Info {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return Info{Version: "dev"}
	}
	return fromBuildInfo(info)
})

func fromBuildInfo(info *debug.BuildInfo) Info {
	out := Info{Version: info.Main.Version}
	if out.Version == "" || out.Version == "(devel)" {
		out.Version = "dev"
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "-tags":
			out.Tags = s.Value
		case "vcs.revision":
			out.Revision = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}
	return out
}

// Version returns the module version or "dev" when unset.
func Version() string {
	return current().Version
}

// VersionWithTags returns the version followed by the VCS revision and build
// tags when present, e.g. "dev (0123abcd+dirty, tags: netgo)".
func VersionWithTags() string {
	return current().String()
}

func (i Info) String() string {
	var extra []string
	if i.Revision != "" {
		rev := i.Revision
		if len(rev) > 8 {
			rev = rev[:8]
		}
		if i.Modified {
			rev += "+dirty"
		}
		extra = append(extra, rev)
	}
	if i.Tags != "" {
		extra = append(extra, "tags: "+i.Tags)
	}
	if len(extra) == 0 {
		return i.Version
	}
	return i.Version + " (" + strings.Join(extra, ", ") + ")"
}
