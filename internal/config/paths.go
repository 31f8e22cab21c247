package config

import (
	"os"
	"path/filepath"
	"strings"
)

// BackendScriptName is the bundled backend entry point.
const BackendScriptName = "tr-coder.js"

// HomeDir resolves the user's home from HOME, then USERPROFILE, then ".".
func HomeDir(getenv func(string) string) string {
	if home := getenv("HOME"); home != "" {
		return home
	}
	if home := getenv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// ExpandHome replaces a leading "~" with home and cleans the result.
func ExpandHome(path, home string) string {
	if path == "~" {
		return filepath.Clean(home)
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(home, path[2:])
	}
	return filepath.Clean(path)
}

// DefaultBackendScript returns where the backend script lives for the mode:
// next to the sources in development, inside the packaged resources otherwise.
func DefaultBackendScript(mode Mode) string {
	if mode == ModeDevelopment {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		return filepath.Join(wd, "dist", BackendScriptName)
	}
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("resources", "app", "dist", BackendScriptName)
	}
	return filepath.Join(filepath.Dir(exe), "resources", "app", "dist", BackendScriptName)
}
