// Package version exposes build metadata for the laminate CLI.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	Platform  string
}

// Get returns the current build metadata.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string { return i.Version }

// Full renders the complete build description.
func (i Info) Full() string {
	return fmt.Sprintf("%s (%s) built %s %s %s",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}
