// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata stamped into the binary at link time:
//
//	go build -ldflags "-X moodlight/pkg/build.buildName=moodlight \
//	    -X moodlight/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds fall back to "dev" values so the CLI still works when the
// flags are missing; Initialize reports which ones were not provided.
package build

import (
	"fmt"
	"strings"
)

const description = "Audio-reactive colour engine for addressable LED controllers"

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        "moodlight",
		Description: description,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies the link-time variables into the build info. Missing
// values keep their development defaults and are reported in the returned
// error so release pipelines can fail loudly while local builds carry on.
func Initialize() error {
	var missing []string

	set := func(dst *string, val, name string) {
		if val == "" {
			missing = append(missing, name)
			return
		}
		*dst = val
	}
	set(&buildFlags.Name, buildName, "BuildName")
	set(&buildFlags.Time, buildTime, "BuildTime")
	set(&buildFlags.Commit, buildCommit, "BuildCommit")
	set(&buildFlags.Version, buildVersion, "BuildVersion")

	if len(missing) > 0 {
		return fmt.Errorf("missing build flags: %s", strings.Join(missing, ", "))
	}
	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// Summary renders a single line for --version output and startup logs.
func (f *ldFlags) Summary() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
