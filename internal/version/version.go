// Package version provides build version information for has-permission.
package version

import "runtime"

// Set with -ldflags "-X github.com/mstuart/has-permission/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	Platform  string
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the version alone.
func (i Info) String() string {
	return i.Version
}

// Details returns the build metadata as ordered label/value pairs.
func (i Info) Details() [][2]string {
	return [][2]string{
		{"commit", i.Commit},
		{"built", i.BuildDate},
		{"go", i.GoVersion},
		{"platform", i.Platform},
	}
}
