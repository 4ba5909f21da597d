// Package version exposes build-time version information for the CLI tools.
package version

import "fmt"

// Set at build time via -ldflags "-X opticflow/internal/version.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String formats the version with commit and build time for -version output.
func String() string {
	return fmt.Sprintf("flowcalc %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
