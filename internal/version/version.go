// Package version carries build metadata injected with -ldflags -X.
package version

import "runtime"

// Name is the product name shown in the window title, tray and about box.
const Name = "TokenRing Coder"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the short form used in the about box.
func Info() string {
	if Commit == "unknown" {
		return Version
	}
	return Version + " (" + shortCommit() + ")"
}

// Full adds the build time and target platform.
func Full() string {
	return Version + " (commit: " + shortCommit() + ", built: " + BuildTime + ", " + runtime.GOOS + "/" + runtime.GOARCH + ")"
}

func shortCommit() string {
	if len(Commit) > 12 {
		return Commit[:12]
	}
	return Commit
}
