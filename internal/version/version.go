// Package version holds build metadata injected via ldflags:
//
//	-ldflags "-X .../internal/version.Version=v1.2.3 -X .../internal/version.Commit=abc123"
package version

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
