// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata embedded at link time, for example:
//
//	go build -ldflags "-X wfall/pkg/build.buildVersion=0.3.0 -X wfall/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Development builds carry no flags and report "dev".
package build

import (
	"errors"
	"fmt"
)

// ErrMissingFlag is returned by Initialize when a link-time flag is empty.
var ErrMissingFlag = errors.New("build flag is required")

// Info is the build metadata.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String renders the version line printed by "wfall --version".
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Time)
}

// Populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = devInfo()
)

func devInfo() *Info {
	return &Info{
		Name:    "wfall",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
}

// Initialize validates and copies the link-time flags. On error the
// development defaults stay in place, so callers may log and carry on.
func Initialize() error {
	flags := []struct {
		name, value string
	}{
		{"BuildName", buildName},
		{"BuildTime", buildTime},
		{"BuildCommit", buildCommit},
		{"BuildVersion", buildVersion},
	}
	for _, f := range flags {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingFlag, f.name)
		}
	}

	buildInfo.Name = buildName
	buildInfo.Time = buildTime
	buildInfo.Commit = buildCommit
	buildInfo.Version = buildVersion

	return nil
}

// Get returns the current build information.
func Get() Info {
	return *buildInfo
}
