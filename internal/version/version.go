// Package version holds build metadata injected via ldflags and resolves dependency versions
// from the binary's embedded module information.
package version

import (
	"runtime/debug"
	"strings"
)

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var readBuildInfo = debug.ReadBuildInfo

// Module returns the version of dependency module path linked into this binary,
// without a leading "v". It returns "" when the module is not linked or build info is unavailable.
func Module(path string) string {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return ""
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return Normalize(dep.Replace.Version)
		}
		return Normalize(dep.Version)
	}
	return ""
}

// Normalize strips surrounding whitespace and a single leading "v" from a version string.
func Normalize(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}
