// Package version carries the build identity stamped in at link time:
//
//	go build -ldflags "-X github.com/elyseproject/elyse/internal/version.Version=v1.0.0"
package version

import "fmt"

// Version is the release tag, or "devel" for untagged builds.
var Version = "devel"

// GitCommit and BuildTime are optional extra identity, also set via ldflags.
var (
	GitCommit = ""
	BuildTime = ""
)

// String renders the identity the --version flag prints. Commit and build
// time only appear when the build stamped them.
func String() string {
	s := Version
	if GitCommit != "" {
		s = fmt.Sprintf("%s (commit %s)", s, GitCommit)
	}
	if BuildTime != "" {
		s = fmt.Sprintf("%s built %s", s, BuildTime)
	}
	return s
}
