// Package version holds build metadata injected at link time.
package version

import "runtime"

// Build information. Populated via -ldflags at release time, e.g.
//
//	-X github.com/jackzampolin/leaf/version.GitRelease=v0.3.0
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = runtime.Version()
)
