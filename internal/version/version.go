// Package version carries build metadata, overridden at link time with
// -ldflags "-X .../internal/version.Version=...".
package version

var (
	// Version is the release version of the engine.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is when the binary was built.
	BuildTime = "unknown"
)
