// Package version exposes build metadata stamped via -ldflags.
package version

import (
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var readBuildInfo = debug.ReadBuildInfo

// String renders the version line printed by `eyra version`. Unstamped
// builds fall back to the module version and VCS settings `go install` records.
func String() string {
	version, commit, date := Version, Commit, Date
	if info, ok := readBuildInfo(); ok {
		if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		for _, setting := range info.Settings {
			switch {
			case setting.Key == "vcs.revision" && commit == "none":
				commit = setting.Value
			case setting.Key == "vcs.time" && date == "unknown":
				date = setting.Value
			}
		}
	}
	return "eyra " + version + " (commit=" + commit + ", date=" + date + ", go=" + runtime.Version() + ")"
}
