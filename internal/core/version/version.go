// Package version reports build information stamped in at link time
package version

import "runtime"

// BuildInfo holds version information about the binary
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Info returns the build information.
// Set via -ldflags "-X 'verifiedorgs/internal/core/version.version=v0.1.0'
// -X 'verifiedorgs/internal/core/version.commit=abcd' -X 'verifiedorgs/internal/core/version.date=2026-10-01'"
func Info() BuildInfo {
	return BuildInfo{
		Service:   "verifiedorgs",
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
	}
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
