// Package version holds build-time metadata for the pointstream binaries,
// populated via -ldflags at build time; the zero values below are used
// for `go run`/`go test` and other non-release builds.
package version

var (
	// Version is the released version string, e.g. "v1.4.0".
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
