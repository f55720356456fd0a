// Package version carries build identification, overridden at link time with
// -ldflags "-X github.com/canbus-data/treemem/internal/version.Version=...".
package version

var (
	// Version is the current toolchain version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
