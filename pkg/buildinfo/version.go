// Package buildinfo holds version information injected at build time:
//
//	go build -ldflags "-X github.com/matzehuels/erkit/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/erkit/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/erkit/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("erkit %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the --version template for cobra.
func Template() string {
	return String() + "\n"
}
