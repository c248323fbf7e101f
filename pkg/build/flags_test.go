// SPDX-License-Identifier: MIT
package build

import (
	"errors"
	"os"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origInfo    Info
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origInfo = *buildInfo

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildInfo = origInfo

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantMissing string
	}{
		{"Missing BuildName", "", "2025-04-13", "abcdef123", "v1.0.0", "BuildName"},
		{"Missing BuildTime", "wfall", "", "abcdef123", "v1.0.0", "BuildTime"},
		{"Missing BuildCommit", "wfall", "2025-04-13", "", "v1.0.0", "BuildCommit"},
		{"Missing BuildVersion", "wfall", "2025-04-13", "abcdef123", "", "BuildVersion"},
		{"Success Case", "wfall", "2025-04-13", "abcdef123", "v1.0.0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildInfo = devInfo()
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if tt.wantMissing != "" {
				if !errors.Is(err, ErrMissingFlag) {
					t.Fatalf("Initialize() error = %v, want ErrMissingFlag", err)
				}
				if !strings.Contains(err.Error(), tt.wantMissing) {
					t.Errorf("error %q does not name %s", err, tt.wantMissing)
				}
				if Get().Version != "dev" {
					t.Errorf("failed Initialize changed the version to %q", Get().Version)
				}
				return
			}

			if err != nil {
				t.Fatalf("Initialize() unexpected error: %v", err)
			}
			want := Info{Name: "wfall", Time: "2025-04-13", Commit: "abcdef123", Version: "v1.0.0"}
			if got := Get(); got != want {
				t.Errorf("Get() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.0.0", Commit: "abcdef123", Time: "2025-04-13"}
	if got := info.String(); got != "v1.0.0 (commit abcdef123, built 2025-04-13)" {
		t.Errorf("String() = %q", got)
	}
}
