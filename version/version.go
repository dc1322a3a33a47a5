// Package version holds build metadata set with -ldflags at release time.
package version

import (
	"fmt"
	"runtime"
)

var (
	// GitRelease is the release tag, e.g. v0.3.1.
	GitRelease = "dev"
	// GitCommit is the commit hash the binary was built from.
	GitCommit = "unknown"
	// GitCommitDate is the commit date in RFC 3339.
	GitCommitDate = "unknown"
	// GoInfo is the Go toolchain and target platform.
	GoInfo = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)
