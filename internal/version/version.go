// Package version holds build metadata, stamped with -ldflags at release
// time:
//
//	go build -ldflags "-X github.com/mj1618/press-monkey/internal/version.Version=v1.2.0"
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)
