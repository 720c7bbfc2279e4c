// Package build holds version information that's set at link time, e.g.,
//
//	go build -ldflags "-X github.com/armadaproject/testchunk/internal/testchunk/build.ReleaseVersion=v1.2.3"
package build

import "runtime"

var (
	// ReleaseVersion is the semantic version of the build.
	ReleaseVersion = "UNKNOWN_VERSION"
	// GitCommit is the hash of the commit the binary was built from.
	GitCommit = "UNKNOWN_GIT_COMMIT"
	// GoVersion is the version of the Go toolchain used for the build.
	GoVersion = runtime.Version()
	// BuildTime is the time of the build, in RFC 3339 format.
	BuildTime = "UNKNOWN_BUILD_TIME"
)
